package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct{}

func TestResolveFuncHandlers(t *testing.T) {
	var got []string
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "first") })
	RegisterFunc[int](testKey{}, func(int) { t.Fatal("wrong type resolved") })
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "second") })

	for _, h := range ResolveFuncHandlers[*[]string](testKey{}) {
		h(&got)
	}
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Empty(t, ResolveFuncHandlers[string](struct{}{}))
}
