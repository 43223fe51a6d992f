package connection

import "github.com/go-faster/errors"

var (
	// ErrInvalidArgument reports a call with unusable arguments, such as Open
	// without any known address.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState reports a call that is illegal in the current state.
	ErrInvalidState = errors.New("invalid state")
)

func invalidState(msg string) error {
	return errors.Wrap(ErrInvalidState, msg)
}

func invalidArgument(msg string) error {
	return errors.Wrap(ErrInvalidArgument, msg)
}
