package dotnet_test

import (
	"errors"
	oe "os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tompish/nubu/bump/dotnet"
	"github.com/Tompish/nubu/bump/exec"
)

const searchJSON = `{
  "version": 2,
  "problems": [],
  "searchResult": [
    {
      "sourceName": "contoso",
      "packages": [
        {"id": "Contoso.Core", "version": "1.2.0"},
        {"id": "Contoso.Core", "version": "1.10.0"},
        {"id": "Contoso.Core", "version": "2.0.0-beta.1"},
        {"id": "Contoso.Core", "version": "1.9.0"}
      ]
    },
    {
      "sourceName": "nuget.org",
      "packages": [
        {"id": "Contoso.Core", "latestVersion": "1.10.0"}
      ]
    }
  ]
}`

type fakeDotnet struct {
	calls [][]string
	reply string
	err   error
}

func (f *fakeDotnet) run(_ string, name string, arg ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, arg...))

	return f.reply, f.err
}

func TestParseSearch(t *testing.T) {
	t.Parallel()

	got, err := dotnet.ParseSearchForTest("Welcome to .NET!\n" + searchJSON)

	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{"2.0.0-beta.1", "1.10.0", "1.9.0", "1.2.0"},
		got,
	)

	_, err = dotnet.ParseSearchForTest("not json")
	assert.ErrorContains(t, err, "decoding search output")
}

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{a: "1.10.0", b: "1.9.0", want: 1},
		{a: "1.0.0-beta", b: "1.0.0", want: -1},
		{a: "1.2.3.4", b: "1.2.3.10", want: -1},
		{a: "2.0.0.0", b: "2.0.0.0", want: 0},
		{a: "1.2.3.4", b: "1.2.3", want: 1},
		{a: "1.2.4-beta", b: "1.2.3.4", want: 1},
		{a: "1.2.3.4", b: "1.2.4", want: -1},
		{a: "1.2.4-beta.2", b: "1.2.4-beta.10", want: -1},
		{a: "1.2.4-rc.1", b: "1.2.4-beta.10", want: 1},
		{a: "1.2.4.0-beta", b: "1.2.4", want: -1},
		{a: "1.2.4+build.7", b: "1.2.4", want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, dotnet.CompareForTest(tt.a, tt.b))
		})
	}
}

func TestSortNewestFirst_mixed_formats(t *testing.T) {
	t.Parallel()

	want := []string{"1.10.0", "1.2.4", "1.2.4-beta", "1.2.3.4", "1.2.3"}

	for _, in := range [][]string{
		{"1.2.3.4", "1.2.3", "1.2.4-beta", "1.2.4", "1.10.0"},
		{"1.2.4-beta", "1.2.3", "1.10.0", "1.2.3.4", "1.2.4"},
		{"1.2.3", "1.2.4", "1.2.3.4", "1.10.0", "1.2.4-beta"},
	} {
		got := append([]string(nil), in...)
		dotnet.SortNewestFirstForTest(got)

		assert.Equal(t, want, got, "input %v", in)
	}
}

func TestCLI_SearchVersions(t *testing.T) {
	t.Parallel()

	fake := &fakeDotnet{reply: searchJSON}
	cli := dotnet.CLI{Run: fake.run}

	got, err := cli.SearchVersions("Contoso.Core", "https://feed", 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"2.0.0-beta.1", "1.10.0"}, got)
	assert.Equal(
		t,
		[][]string{{
			"dotnet", "package", "search", "Contoso.Core",
			"--exact-match", "--prerelease", "--format", "json",
			"--source", "https://feed",
		}},
		fake.calls,
	)
}

func TestCLI_SearchVersions_errors(t *testing.T) {
	t.Parallel()

	empty := &fakeDotnet{reply: `{"searchResult": []}`}
	_, err := dotnet.CLI{Run: empty.run}.SearchVersions("X", "", 20)
	assert.ErrorIs(t, err, dotnet.ErrNoVersions)
	assert.NotContains(t, empty.calls[0], "--source")

	failing := &fakeDotnet{err: errors.New("exit status 1")}
	_, err = dotnet.CLI{Run: failing.run}.SearchVersions("X", "", 20)
	assert.ErrorContains(t, err, "searching package versions")
}

func TestCLI_Build(t *testing.T) {
	t.Parallel()

	fake := &fakeDotnet{}
	require.NoError(t, dotnet.CLI{Run: fake.run}.Build("/src/App.csproj"))
	assert.Equal(t, [][]string{{"dotnet", "build", "/src/App.csproj"}}, fake.calls)

	missing := &fakeDotnet{
		err: &exec.MissingToolError{Name: "dotnet", Err: oe.ErrNotFound},
	}
	err := dotnet.CLI{Run: missing.run}.Build("/src/App.csproj")

	var mt *exec.MissingToolError
	require.ErrorAs(t, err, &mt)
	assert.Equal(t, "dotnet", mt.Name)
}
