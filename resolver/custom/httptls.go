package custom

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cinegate/cinegate/fetch"
	lua "github.com/yuin/gopher-lua"
)

// ModuleName is what scripts require to reach the Chrome-fingerprinted client.
//
//	local http = require("http_tls")
//	local body, status = http.get(url [, headers])
//	local res = http.request({method = "POST", url = url, headers = {}, body = ""})
//	-- res.status, res.body, res.headers
const ModuleName = "http_tls"

const maxBody = 8 << 20

// httpModule binds the Lua API to one client.
type httpModule struct {
	client *http.Client
}

func (m *httpModule) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get":     m.get,
		"request": m.request,
	})
	L.Push(mod)
	return 1
}

func (m *httpModule) get(L *lua.LState) int {
	url := L.CheckString(1)
	headers := headersOf(L.OptTable(2, nil))

	status, body, _, err := m.do(L, http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(body))
	L.Push(lua.LNumber(status))
	return 2
}

func (m *httpModule) request(L *lua.LState) int {
	opts := L.CheckTable(1)

	url := stringField(opts, "url", "")
	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	var headers map[string]string
	if tbl, ok := opts.RawGetString("headers").(*lua.LTable); ok {
		headers = headersOf(tbl)
	}

	method := strings.ToUpper(stringField(opts, "method", http.MethodGet))
	status, body, header, err := m.do(L, method, url, headers, stringField(opts, "body", ""))
	if err != nil {
		L.RaiseError("http_tls.request: %s", err.Error())
		return 0
	}

	respHeaders := L.NewTable()
	for k := range header {
		respHeaders.RawSetString(strings.ToLower(k), lua.LString(header.Get(k)))
	}

	result := L.NewTable()
	result.RawSetString("status", lua.LNumber(status))
	result.RawSetString("body", lua.LString(body))
	result.RawSetString("headers", respHeaders)
	L.Push(result)
	return 1
}

// do performs the request under the context of L, so a cancelled resolution
// aborts in-flight script traffic too.
func (m *httpModule) do(L *lua.LState, method, url string, headers map[string]string, body string) (int, string, http.Header, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(L.Context(), method, url, reader)
	if err != nil {
		return 0, "", nil, err
	}

	fetch.SetBrowserHeaders(req.Header, fetch.Options{})
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, "", resp.Header, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, string(data), resp.Header, nil
}

func headersOf(tbl *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if tbl == nil {
		return headers
	}
	tbl.ForEach(func(k, v lua.LValue) {
		headers[k.String()] = v.String()
	})
	return headers
}

func stringField(tbl *lua.LTable, key, def string) string {
	v := tbl.RawGetString(key)
	if v == lua.LNil {
		return def
	}
	return v.String()
}
