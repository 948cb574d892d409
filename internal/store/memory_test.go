package store_test

import (
	"testing"

	"github.com/loykin/welltrack/internal/store"
	"github.com/loykin/welltrack/internal/store/storetest"
)

func TestMemoryConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemory() })
}
