package stdlib

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/protoadapt"

	"github.com/emberlang/ember/internal/vm"
)

// rpcTimeout bounds a single std::rpc::call end to end, reflection
// lookup included.
const rpcTimeout = 30 * time.Second

// HostFuncs returns the std functions implemented by the embedding
// process, keyed by decl path. The only one today is std::rpc::call,
// which makes a dynamic gRPC call: the method is resolved through server
// reflection, the request is built from a JSON payload, and the response
// comes back as JSON.
func HostFuncs() map[string]vm.HostFunc {
	return map[string]vm.HostFunc{
		"std::rpc::call": {
			Args: 3,
			Fn: func(m *vm.VM, args []vm.StackItem) (vm.StackItem, bool, error) {
				target, ok := m.StringVal(args[0])
				if !ok {
					return nil, false, fmt.Errorf("rpc: target must be a string")
				}
				method, ok := m.StringVal(args[1])
				if !ok {
					return nil, false, fmt.Errorf("rpc: method must be a string")
				}
				payload, ok := m.StringVal(args[2])
				if !ok {
					return nil, false, fmt.Errorf("rpc: payload must be a string")
				}
				out, err := rpcCall(target, method, payload)
				if err != nil {
					return nil, false, err
				}
				return m.NewString(out), true, nil
			},
		},
	}
}

// rpcCall dials target and invokes the fully-qualified method
// ("pkg.Service/Method") with a request built from the JSON payload.
func rpcCall(target, method, payload string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return "", fmt.Errorf("rpc: dial %s: %w", target, err)
	}
	defer conn.Close()

	svcName, methodName, ok := splitMethod(method)
	if !ok {
		return "", fmt.Errorf("rpc: method must look like pkg.Service/Method, got %q", method)
	}

	rc := grpcreflect.NewClientAuto(ctx, conn)
	defer rc.Reset()

	svc, err := rc.ResolveService(svcName)
	if err != nil {
		return "", fmt.Errorf("rpc: resolve %s: %w", svcName, err)
	}
	md := svc.FindMethodByName(methodName)
	if md == nil {
		return "", fmt.Errorf("rpc: service %s has no method %s", svcName, methodName)
	}

	req := dynamic.NewMessage(md.GetInputType())
	if payload != "" {
		if err := req.UnmarshalJSON([]byte(payload)); err != nil {
			return "", fmt.Errorf("rpc: bad payload: %w", err)
		}
	}

	stub := grpcdynamic.NewStub(conn)
	resp, err := stub.InvokeRpc(ctx, md, req)
	if err != nil {
		return "", fmt.Errorf("rpc: %s: %w", method, err)
	}

	out, err := protojson.Marshal(protoadapt.MessageV2Of(resp))
	if err != nil {
		return "", fmt.Errorf("rpc: encode response: %w", err)
	}
	return string(out), nil
}

func splitMethod(full string) (svc, method string, ok bool) {
	i := strings.LastIndexAny(full, "/.")
	if i <= 0 || i == len(full)-1 {
		return "", "", false
	}
	return full[:i], full[i+1:], true
}
