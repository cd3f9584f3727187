package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"horse.fit/todos/internal/app"
)

func main() {
	handler, closeFn, err := app.NewLambdaHandler(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize handler: %v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	lambda.Start(handler.Handle)
}
