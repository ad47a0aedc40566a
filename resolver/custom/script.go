// Package custom runs user-supplied Lua resolvers for hosts without built-in support.
//
// A resolver script defines Resolve(id), returning a manifest URL or nil and a
// reason. It may also declare an Aliases table of extra server names and an
// EmbedURL(id) function. Every resolution runs in a fresh Lua state bound to the
// caller's context.
package custom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/network"
	"github.com/cinegate/cinegate/resolver"
	"github.com/cinegate/cinegate/util"
	libs "github.com/metafates/mangal-lua-libs"
	"github.com/spf13/viper"
	lua "github.com/yuin/gopher-lua"
)

// Extension is the file extension of resolver scripts.
const Extension = ".lua"

// Script is a loaded resolver script. It is safe for concurrent use.
type Script struct {
	Name    string
	Path    string
	Aliases []string

	proto    *lua.FunctionProto
	http     *httpModule
	embedURL bool
}

// Load compiles the script at path and checks that it defines Resolve.
// A nil client selects a Chrome-fingerprinted one with the configured fetch timeout.
func Load(path string, client *http.Client) (*Script, error) {
	proto, err := compile(path)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = network.NewClient(network.Options{
			Timeout:     viper.GetDuration(key.FetchTimeout),
			Impersonate: true,
		})
	}

	s := &Script{
		Name:  strings.ToLower(util.FileStem(path)),
		Path:  path,
		proto: proto,
		http:  &httpModule{client: client},
	}

	L, err := s.state(context.Background())
	if err != nil {
		return nil, err
	}
	defer L.Close()

	if L.GetGlobal(constant.ResolveFn).Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is required but not defined in %s", constant.ResolveFn, s.Name)
	}
	s.embedURL = L.GetGlobal(constant.EmbedURLFn).Type() == lua.LTFunction

	if aliases, ok := L.GetGlobal(constant.AliasesVar).(*lua.LTable); ok {
		aliases.ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				s.Aliases = append(s.Aliases, strings.ToLower(strings.TrimSpace(v.String())))
			}
		})
	}

	return s, nil
}

// LoadDir loads every script in dir, sorted by name. Broken scripts are
// reported together without hiding the good ones.
func LoadDir(dir string, client *http.Client) ([]*Script, error) {
	entries, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var (
		scripts []*Script
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}

		s, err := Load(filepath.Join(dir, e.Name()), client)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scripts = append(scripts, s)
	}

	return scripts, errors.Join(errs...)
}

// Names returns the script name followed by its aliases.
func (s *Script) Names() []string {
	return append([]string{s.Name}, s.Aliases...)
}

// EmbedURL asks the script for the embed page of sourceID. It returns "" when
// the script does not define EmbedURL.
func (s *Script) EmbedURL(ctx context.Context, sourceID string) (string, error) {
	if !s.embedURL {
		return "", nil
	}

	L, err := s.state(ctx)
	if err != nil {
		return "", err
	}
	defer L.Close()

	ret, _, err := s.call(L, constant.EmbedURLFn, sourceID)
	if err != nil {
		return "", err
	}
	return lua.LVAsString(ret), nil
}

// Resolve implements resolver.Resolver.
func (s *Script) Resolve(ctx context.Context, sourceID string) (string, error) {
	L, err := s.state(ctx)
	if err != nil {
		return "", err
	}
	defer L.Close()

	ret, reason, err := s.call(L, constant.ResolveFn, sourceID)
	if err != nil {
		return "", err
	}

	manifest, ok := ret.(lua.LString)
	if !ok || manifest == "" {
		msg := lua.LVAsString(reason)
		if msg == "" {
			msg = s.Name + " returned nothing"
		}
		return "", fmt.Errorf("%w: %s", resolver.ErrNoManifest, msg)
	}

	u, err := url.Parse(string(manifest))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s returned %q, not an absolute http(s) URL", s.Name, string(manifest))
	}
	return u.String(), nil
}

// state prepares a fresh interpreter with the script loaded.
func (s *Script) state(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState()
	libs.Preload(L)
	L.PreloadModule(ModuleName, s.http.loader)
	L.SetContext(ctx)

	if err := run(L, s.proto); err != nil {
		L.Close()
		return nil, fmt.Errorf("load %s: %w", s.Name, err)
	}
	return L, nil
}

// call invokes a global function with one string argument and returns its first two results.
func (s *Script) call(L *lua.LState, fn, arg string) (lua.LValue, lua.LValue, error) {
	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(fn),
		NRet:    2,
		Protect: true,
	}, lua.LString(arg))
	if err != nil {
		if ctxErr := L.Context().Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("%s.%s: %w", s.Name, fn, ctxErr)
		}
		return nil, nil, fmt.Errorf("%s.%s: %w", s.Name, fn, err)
	}

	first, second := L.Get(-2), L.Get(-1)
	L.Pop(2)
	return first, second, nil
}
