package memory_test

import (
	"testing"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	contract "github.com/tqwhite/unity-data-generator-sub000/pkg/ports/tests"
)

func TestAuditSink_Contract(t *testing.T) {
	contract.RunAuditSinkContract(t, memory.NewAuditSink())
}
