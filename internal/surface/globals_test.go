package surface

import (
	"context"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpman/mcpman/internal/upstream"
)

type stubLister struct {
	tools     map[string][]upstream.ToolDescriptor
	connected []string
	err       error
}

func (s *stubLister) GetAllTools(_ context.Context) (map[string][]upstream.ToolDescriptor, error) {
	return s.tools, s.err
}

func (s *stubLister) GetConnectedServers() []string { return s.connected }

func sampleLister() *stubLister {
	return &stubLister{
		tools: map[string][]upstream.ToolDescriptor{
			"filesystem": {{ServerName: "filesystem", Name: "list_directory", Description: "list a directory"}},
		},
		connected: []string{"filesystem"},
	}
}

func TestGlobals_ListServers(t *testing.T) {
	vm := goja.New()
	globals := BuildGlobalContext(vm, sampleLister(), nil)
	for name, v := range globals {
		require.NoError(t, vm.Set(name, v))
	}

	v, err := vm.RunString(`listServers()`)
	require.NoError(t, err)
	var out []string
	require.NoError(t, vm.ExportTo(v, &out))
	assert.Equal(t, []string{"filesystem"}, out)
}

func TestGlobals_ListToolsWithAndWithoutServer(t *testing.T) {
	vm := goja.New()
	globals := BuildGlobalContext(vm, sampleLister(), nil)
	for name, v := range globals {
		require.NoError(t, vm.Set(name, v))
	}

	v, err := vm.RunString(`listTools("filesystem")`)
	require.NoError(t, err)
	var names []string
	require.NoError(t, vm.ExportTo(v, &names))
	assert.Equal(t, []string{"list_directory"}, names)

	v, err = vm.RunString(`JSON.stringify(listTools())`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filesystem":["list_directory"]}`, v.String())
}

func TestGlobals_HelpResolvesToolSummary(t *testing.T) {
	vm := goja.New()
	globals := BuildGlobalContext(vm, sampleLister(), nil)
	for name, v := range globals {
		require.NoError(t, vm.Set(name, v))
	}

	v, err := vm.RunString(`(async () => {
		const r = await help("filesystem", "listDirectory");
		return r.tool.name;
	})()`)
	require.NoError(t, err)
	promise := v.Export().(*goja.Promise)
	require.Equal(t, goja.PromiseStateFulfilled, promise.State())
	assert.Equal(t, "list_directory", promise.Result().String())
}

func TestGlobals_HelpUnknownServerRejects(t *testing.T) {
	vm := goja.New()
	globals := BuildGlobalContext(vm, sampleLister(), nil)
	for name, v := range globals {
		require.NoError(t, vm.Set(name, v))
	}

	v, err := vm.RunString(`(async () => {
		try {
			await help("nope");
			return "no-throw";
		} catch (e) {
			return "caught:" + e;
		}
	})()`)
	require.NoError(t, err)
	promise := v.Export().(*goja.Promise)
	require.Equal(t, goja.PromiseStateFulfilled, promise.State())
	assert.Contains(t, promise.Result().String(), "unknown server")
}

func TestGlobals_ServerBoundUnderCamelAlias(t *testing.T) {
	vm := goja.New()
	lister := &stubLister{
		tools: map[string][]upstream.ToolDescriptor{
			"my-server": {{ServerName: "my-server", Name: "do_thing"}},
		},
		connected: []string{"my-server"},
	}
	proxies := BuildProxies(vm, &stubCaller{result: &upstream.ToolResult{}}, lister.tools)
	globals := BuildGlobalContext(vm, lister, proxies)
	_, hasCamel := globals["myServer"]
	assert.True(t, hasCamel)
	_, hasOriginal := globals["my-server"]
	assert.True(t, hasOriginal)
}
