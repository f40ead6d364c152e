package command

import "errors"

// Protocol error kinds (§7). These are the kinds a parse closure can
// return; Apply-time errors come back as plain Go errors wrapping
// store's execution-error kinds instead, since by the time Apply runs
// the command is already known to be well-formed.
var (
	ErrInvalidProtocol       = errors.New("ERR Protocol error")
	ErrSyntaxError           = errors.New("ERR syntax error")
	ErrWrongNumberOfArguments = errors.New("ERR wrong number of arguments")
	ErrInvalidArgument       = errors.New("ERR invalid argument")
	ErrUnknownCommand        = errors.New("ERR unknown command")
)

// ErrConnectionAborted is the transport error (§7) a session's reader
// reports on Inbound.Err when the peer closes mid-frame: bytes arrived
// but a complete frame never did.
var ErrConnectionAborted = errors.New("connection aborted mid-frame")

func wrongNumberOfArgs(cmd string) error {
	return errors.New("ERR wrong number of arguments for '" + cmd + "' command")
}
