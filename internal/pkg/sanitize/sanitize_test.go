package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_StripsMarkup(t *testing.T) {
	assert.Equal(t, "hello", Text(`<script>alert(1)</script><b>hello</b>`))
}

func TestText_KeepsPlainText(t *testing.T) {
	assert.Equal(t, "tom & jerry", Text("  tom & jerry "))
}
