package factory

import (
	"fmt"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// RemoteException returns a daemon exception with depth-1 nested inner exceptions.
func RemoteException(depth int) *entity.RemoteException {
	var result *entity.RemoteException
	for i := depth - 1; i >= 0; i-- {
		stack := fmt.Sprintf("   at Level%d()", i)
		result = &entity.RemoteException{
			ClassName:        fmt.Sprintf("System.Exception%d", i),
			Message:          fmt.Sprintf("failure at level %d", i),
			InnerException:   result,
			StackTraceString: &stack,
			AssemblyName:     "FSI-ASSEMBLY",
		}
	}
	return result
}

// EvalResultOk is a successful evaluation returning value.
func EvalResultOk(code, value string) *entity.EvalResult {
	return &entity.EvalResult{
		EvaluationResult: entity.EvaluationResult{Case: entity.ResultCaseOk, Data: value},
		EvaluatedCode:    code,
		Diagnostics:      []entity.Diagnostic{},
	}
}

// EvalResultError is a failed evaluation carrying exc.
func EvalResultError(code string, exc *entity.RemoteException) *entity.EvalResult {
	return &entity.EvalResult{
		EvaluationResult: entity.EvaluationResult{Case: entity.ResultCaseError, Error: exc},
		EvaluatedCode:    code,
		Diagnostics:      []entity.Diagnostic{},
	}
}
