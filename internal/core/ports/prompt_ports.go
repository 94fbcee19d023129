package ports

import "context"

type Prompter interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
	Alert(ctx context.Context, message string)
}
