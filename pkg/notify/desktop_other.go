//go:build !linux && !windows

package notify

func newDesktop(string) (Deliverer, error) {
	return nil, ErrUnsupported
}
