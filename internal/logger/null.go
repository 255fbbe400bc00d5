package logger

type nullWriter struct{}

func (nw *nullWriter) Write(b []byte) (int, error) {
	return len(b), nil
}
