package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covgap/internal/coverage"
	cverr "github.com/zjy-dev/covgap/internal/errors"
)

func dataset(t *testing.T, paths ...string) *coverage.Dataset {
	t.Helper()
	var files []coverage.FileCoverage
	for _, p := range paths {
		fc := coverage.NewFileCoverage(p)
		fc.Lines[1] = coverage.LineRecord{Number: 1, Hits: 0}
		files = append(files, fc)
	}
	ds, err := coverage.Merge(files)
	require.NoError(t, err)
	return ds
}

func TestFilterApply(t *testing.T) {
	ds := dataset(t,
		"src/app/main.py",
		"src/app/util.py",
		"src/app/util_test.py",
		"tests/test_main.py",
		"vendor/lib.py",
	)

	tests := []struct {
		name     string
		includes []string
		excludes []string
		want     []string
	}{
		{
			name: "no patterns keeps everything",
			want: ds.Paths(),
		},
		{
			name:     "directory include",
			includes: []string{"src"},
			want:     []string{"src/app/main.py", "src/app/util.py", "src/app/util_test.py"},
		},
		{
			name:     "glob include",
			includes: []string{"**/test_*.py"},
			want:     []string{"tests/test_main.py"},
		},
		{
			name:     "leading dot and backslashes",
			includes: []string{`.\src\app\main.py`},
			want:     []string{"src/app/main.py"},
		},
		{
			name:     "exclude wins over include",
			includes: []string{"src/**"},
			excludes: []string{"*_test.py"},
			want:     []string{"src/app/main.py", "src/app/util.py"},
		},
		{
			name:     "exclude directory",
			excludes: []string{"tests/", "vendor"},
			want:     []string{"src/app/main.py", "src/app/util.py", "src/app/util_test.py"},
		},
		{
			name:     "negated exclude",
			excludes: []string{"src/app/", "!src/app/main.py"},
			want:     []string{"src/app/main.py", "tests/test_main.py", "vendor/lib.py"},
		},
		{
			name:     "basename include matches at any depth",
			includes: []string{"util*.py"},
			want:     []string{"src/app/util.py", "src/app/util_test.py"},
		},
		{
			name:     "directory name include matches at any depth",
			includes: []string{"app"},
			want:     []string{"src/app/main.py", "src/app/util.py", "src/app/util_test.py"},
		},
		{
			name:     "empty result is valid",
			includes: []string{"docs/**"},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.includes, tt.excludes)
			require.NoError(t, err)

			got := f.Apply(ds)
			if tt.want == nil {
				assert.True(t, got.Empty())
				return
			}
			assert.Equal(t, tt.want, got.Paths())
		})
	}
}

func TestIncludeAndExcludeAgreeOnBasenames(t *testing.T) {
	inc, err := New([]string{"*.py"}, nil)
	require.NoError(t, err)
	exc, err := New(nil, []string{"*.py"})
	require.NoError(t, err)

	for _, p := range []string{"a.py", "src/a.py", "src/deep/pkg/a.py"} {
		assert.True(t, inc.Match(p), "include *.py should select %s", p)
		assert.False(t, exc.Match(p), "exclude *.py should drop %s", p)
	}
	assert.False(t, inc.Match("src/a.go"))
}

func TestFilterInvalidInclude(t *testing.T) {
	_, err := New([]string{"src/[a-"}, nil)
	require.Error(t, err)
	assert.True(t, cverr.Is(err, cverr.ErrConfiguration))
	assert.NotEmpty(t, cverr.Hints(err))
}

func TestNilFilterMatchesAll(t *testing.T) {
	var f *Filter
	assert.True(t, f.Match("anything.go"))
}
