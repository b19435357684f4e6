// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/store_gateway.go -destination=store_gateway_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/auth_gateway.go -destination=auth_gateway_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/notifier.go -destination=notifier_mock.go -package=mocks
