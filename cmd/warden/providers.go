package main

// Builtin capability blank imports — each import activates a self-registering
// capability provider. Add new providers here as they are implemented.

import (
	_ "github.com/Strob0t/Warden/internal/adapter/paymenttools"
)
