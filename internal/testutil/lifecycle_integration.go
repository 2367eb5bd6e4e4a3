//go:build integration

package testutil

import (
	"context"
	"log"
	"os"

	tc "github.com/testcontainers/testcontainers-go"
)

// tcLogger — общий логгер этапов жизни контейнеров.
var tcLogger = log.New(os.Stdout, "[tc] ", log.LstdFlags)

func shortID(c tc.Container) string {
	id := c.GetContainerID()
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// stage — хук, печатающий этап и id контейнера.
func stage(name string) tc.ContainerHook {
	return func(_ context.Context, c tc.Container) error {
		tcLogger.Printf("%-11s id=%s", name, shortID(c))
		return nil
	}
}

// lifecycle — логирование от создания до удаления контейнера.
func lifecycle() tc.CustomizeRequestOption {
	return tc.WithLifecycleHooks(tc.ContainerLifecycleHooks{
		PreCreates: []tc.ContainerRequestHook{
			func(_ context.Context, req tc.ContainerRequest) error {
				tcLogger.Printf("%-11s image=%s", "create", req.Image)
				return nil
			},
		},
		PostStarts:     []tc.ContainerHook{stage("started")},
		PostReadies:    []tc.ContainerHook{stage("ready")},
		PreTerminates:  []tc.ContainerHook{stage("terminating")},
		PostTerminates: []tc.ContainerHook{stage("terminated")},
	})
}
