package custom

import (
	"fmt"
	"sync"

	"github.com/cinegate/cinegate/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type protoKey struct {
	path    string
	size    int64
	modTime int64
}

// protos caches compiled scripts. An edited file has a new key and is recompiled.
var protos sync.Map

// compile parses and compiles the script at path once per revision of the file.
func compile(path string) (*lua.FunctionProto, error) {
	info, err := filesystem.API().Stat(path)
	if err != nil {
		return nil, err
	}

	k := protoKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if cached, ok := protos.Load(k); ok {
		return cached.(*lua.FunctionProto), nil
	}

	file, err := filesystem.API().Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	chunk, err := parse.Parse(file, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	protos.Store(k, proto)
	return proto, nil
}

// run executes the compiled chunk in L, defining the script's globals.
func run(L *lua.LState, proto *lua.FunctionProto) error {
	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}
