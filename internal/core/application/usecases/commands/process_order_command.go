package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/task"
	"orderflow/internal/pkg/guard"
)

var (
	ErrProcessOrderCommandIsNotConstructed = errors.New(
		"ProcessOrderCommand must be created via NewProcessOrderCommand constructor",
	)
)

// ProcessOrderCommand carries one decoded task message to the worker-side handler.
type ProcessOrderCommand struct { //nolint:recvcheck //using for validation
	message task.Message

	guard guard.ConstructorGuard
}

func NewProcessOrderCommand(message task.Message) (ProcessOrderCommand, error) {
	if err := message.OrderID.Validate(); err != nil {
		return ProcessOrderCommand{}, err
	}

	return ProcessOrderCommand{
		message: message,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessOrderCommand) Validate() error {
	return c.guard.Validate(ErrProcessOrderCommandIsNotConstructed)
}

func (c ProcessOrderCommand) Message() task.Message {
	return c.message
}
