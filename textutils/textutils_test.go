package textutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndentString(t *testing.T) {
	require := require.New(t)

	require.Equal(`  Hello
  World`,
		IndentString(`Hello
World`, "  ", 1),
	)

	require.Equal(`  Hello
  World
`,
		IndentString(`Hello
World
`, "  ", 1),
	)

	require.Equal(`  Hello
  World
`,
		IndentString(`Hello
World
  `, "  ", 1),
	)

	require.Equal(`  Hello

  World
`,
		IndentString(`Hello
  
World
`, "  ", 1),
	)

	require.Equal("\t\tx := 1\n\n\t\treturn x\n",
		IndentString("x := 1\n\nreturn x\n", "\t", 2),
	)
}
