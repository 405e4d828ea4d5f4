package factory

import (
	"math/rand"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"go.lsp.dev/protocol"
)

// Range returns a random protocol.Range.
func Range() protocol.Range {
	start := protocol.Position{Line: uint32(rand.Intn(100)), Character: uint32(rand.Intn(100))}
	end := protocol.Position{Line: start.Line + uint32(rand.Intn(100)), Character: uint32(rand.Intn(100))}

	if start.Line == end.Line && start.Character > end.Character {
		end.Character = start.Character + uint32(rand.Intn(100))
	}

	return protocol.Range{
		Start: start,
		End:   end,
	}
}

// Diagnostic returns a daemon diagnostic on a random 1-based line.
func Diagnostic(severity entity.DiagnosticSeverity, message string) entity.Diagnostic {
	line := rand.Intn(100) + 1
	return entity.Diagnostic{
		Message:     message,
		Subcategory: "typecheck",
		Severity:    severity,
		Range: entity.Range{
			StartLine:   line,
			StartColumn: 0,
			EndLine:     line,
			EndColumn:   rand.Intn(40) + 1,
		},
	}
}
