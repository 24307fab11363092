package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelPascal(t *testing.T) {
	assert.Equal(t, "listDirectory", Camel("list-directory"))
	assert.Equal(t, "listDirectory", Camel("list_directory"))
	assert.Equal(t, "ListDirectory", Pascal("list_directory"))
	assert.Equal(t, "help", Camel("help"))
}

func TestKebabSnakeSpace(t *testing.T) {
	assert.Equal(t, "list-directory", Kebab("listDirectory"))
	assert.Equal(t, "list_directory", Snake("listDirectory"))
	assert.Equal(t, "list directory", Space("listDirectory"))

	assert.Equal(t, "list-directory", Kebab("list_directory"))
	assert.Equal(t, "list_directory", Snake("list-directory"))
}

func TestCandidates(t *testing.T) {
	c := Candidates("listDirectory")
	assert.Contains(t, c, "listDirectory")
	assert.Contains(t, c, "list-directory")
	assert.Contains(t, c, "list_directory")
	assert.Contains(t, c, "list directory")
}

func TestIsCamel(t *testing.T) {
	assert.True(t, IsCamel("listDirectory"))
	assert.True(t, IsCamel("help"))
	assert.False(t, IsCamel("list-directory"))
	assert.False(t, IsCamel("list_directory"))
	assert.False(t, IsCamel("ListDirectory"))
	assert.False(t, IsCamel(""))
}

func TestResolve(t *testing.T) {
	stored := map[string]bool{"list_directory": true, "Read-File": true}

	t.Run("exact hit", func(t *testing.T) {
		got, ok := Resolve("list_directory", stored)
		assert.True(t, ok)
		assert.Equal(t, "list_directory", got)
	})

	t.Run("camel resolves to snake candidate", func(t *testing.T) {
		got, ok := Resolve("listDirectory", stored)
		assert.True(t, ok)
		assert.Equal(t, "list_directory", got)
	})

	t.Run("snake(t) == p fallback", func(t *testing.T) {
		got, ok := Resolve("read_file", stored)
		assert.True(t, ok)
		assert.Equal(t, "Read-File", got)
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := Resolve("nonexistent", stored)
		assert.False(t, ok)
	})
}
