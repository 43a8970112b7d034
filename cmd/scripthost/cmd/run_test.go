package cmd

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFixtureReportsAlert(t *testing.T) {
	defaultFs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(defaultFs, "/page.html", []byte(`
		<html><body><script>alert("hi from fixture");</script></body></html>
	`), 0o644))

	err := runFixture("/page.html", "", 0)
	assert.NoError(t, err)
}

func TestRunFixtureWithDriverScript(t *testing.T) {
	defaultFs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(defaultFs, "/page.html", []byte(`
		<html><body><button id="go">go</button></body></html>
	`), 0o644))
	require.NoError(t, afero.WriteFile(defaultFs, "/driver.js", []byte(`
		document.getElementById("go").addEventListener("click", function() {
			alert("clicked");
		});
	`), 0o644))

	err := runFixture("/page.html", "/driver.js", 0)
	assert.NoError(t, err)
}

func TestRunFixtureMissingFileReturnsError(t *testing.T) {
	defaultFs = afero.NewMemMapFs()
	err := runFixture("/does-not-exist.html", "", 0)
	assert.Error(t, err)
}

func TestVersionCommandPrints(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"version"})
	assert.NoError(t, root.Execute())
}
