package constant

// Resolver Script Identifiers - these constants define the globals a Lua resolver script may declare.
const (
	ResolveFn  = "Resolve"
	EmbedURLFn = "EmbedURL"
	AliasesVar = "Aliases"
)

// ResolverTemplate is a Go text/template for scaffolding new Lua resolver files.
const ResolverTemplate = `{{ $divider := repeat "-" (plus (max (len .URL) (len .Name) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @url     {{ .URL }}
-- @author  {{ .Author }}
{{ $divider }}

local http = require("http_tls")

--- Alternative server names routed to this script.
{{ .AliasesVar }} = {}

--- Builds the embed page URL for a source id.
-- @param id string Source id
-- @return string
function {{ .EmbedURLFn }}(id)
	return "{{ .URL }}/e/" .. id
end

--- Resolves a source id to a manifest URL.
-- @param id string Source id
-- @return string|nil, string|nil manifest URL or nil and a reason
function {{ .ResolveFn }}(id)
	local body, status = http.get({{ .EmbedURLFn }}(id))
	if status ~= 200 then
		return nil, "embed page returned " .. status
	end
	local url = body:match('"(https?://[^"]+%.m3u8[^"]*)"')
	if url == nil then
		return nil, "no manifest"
	end
	return url
end

-- ex: ts=4 sw=4 et filetype=lua
`
