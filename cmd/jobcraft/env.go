package main

import (
	"io"
	"os"

	jobcraft "github.com/alnah/go-jobcraft"
	"github.com/alnah/go-jobcraft/internal/config"
	"github.com/alnah/go-jobcraft/internal/server"
)

// Service is what the commands need from *jobcraft.Service.
type Service interface {
	server.Generator
	Close() error
}

// Compile-time interface implementation check.
var _ Service = (*jobcraft.Service)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout     io.Writer
	Stderr     io.Writer
	Getenv     func(string) string
	NewService func(cfg *config.Config, opts ...jobcraft.Option) (Service, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Getenv:     os.Getenv,
		NewService: newService,
	}
}

func newService(cfg *config.Config, opts ...jobcraft.Option) (Service, error) {
	svc, err := jobcraft.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
