package memory_test

import (
	"testing"

	"github.com/aretw0/lookout/pkg/adapters/memory"
	"github.com/aretw0/lookout/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}
