package textremind_test

import (
	"context"
	"fmt"

	"github.com/aretw0/textremind"
	"github.com/aretw0/textremind/pkg/adapters/memory"
	"github.com/aretw0/textremind/pkg/service"
)

// Example runs the form against an in-process backend: the service itself
// satisfies the transport the form expects.
func Example() {
	svc := service.New(memory.NewStore(), memory.NewQueue(), memory.NewOutbox(),
		service.WithCodeGenerator(func() (string, error) { return "123456", nil }),
	)
	app := textremind.New("", textremind.WithTransport(svc))
	defer app.Close()

	ctx := context.Background()
	f, act := app.Form, app.Actions

	f.Number.Set("555-123-4567")
	_ = app.Settle(ctx)
	fmt.Println("verified:", f.NumberVerified.Value())

	act.StartVerification()
	_ = app.Settle(ctx)
	fmt.Println("code sent:", f.CodeSent())

	f.Code.Set("123456")
	f.Message.Set("call mom")
	f.DeliveryTime.Set("in 2 hours")
	_ = app.Settle(ctx)
	fmt.Println("ready:", f.Ready())

	act.Schedule()
	_ = app.Settle(ctx)
	fmt.Println("scheduled:", f.MessageSent())

	// Output:
	// verified: false
	// code sent: true
	// ready: true
	// scheduled: true
}
