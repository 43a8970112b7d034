package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/scripthost/harness"
)

func TestBlobSizeTypeAndSlice(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><p id="out"></p><script>
			var b = new Blob(["hello ", "world"], {type: "text/plain"});
			var s = b.slice(0, 5);
			document.getElementById("out").textContent =
				b.size + "," + b.type + "," + s.size;
		</script></body></html>
	`)
	require.NoError(t, err)
	assert.NoError(t, h.AssertText("#out", "11,text/plain,5"))
}

func TestBlobTextResolvesAsync(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><p id="out">pending</p><script>
			new Blob(["payload"]).text().then(function(s) {
				document.getElementById("out").textContent = s;
			});
		</script></body></html>
	`)
	require.NoError(t, err)
	h.Flush()
	assert.NoError(t, h.AssertText("#out", "payload"))
}

func TestFormDataAppendGetAllAndDelete(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><p id="out"></p><script>
			var fd = new FormData();
			fd.append("tag", "a");
			fd.append("tag", "b");
			fd.set("name", "ada");
			var before = fd.getAll("tag").join("|");
			fd.delete("name");
			document.getElementById("out").textContent =
				before + "," + fd.has("name") + "," + fd.get("tag");
		</script></body></html>
	`)
	require.NoError(t, err)
	assert.NoError(t, h.AssertText("#out", "a|b,false,a"))
}

func TestURLSearchParamsParsesQueryStringInOrder(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><p id="out"></p><script>
			var p = new URLSearchParams("?b=2&a=1&b=3");
			var keys = [];
			p.forEach(function(v, k) { keys.push(k + "=" + v); });
			document.getElementById("out").textContent =
				keys.join(",") + "|" + p.toString();
		</script></body></html>
	`)
	require.NoError(t, err)
	assert.NoError(t, h.AssertText("#out", "b=2,a=1,b=3|a=1&b=2&b=3"))
}

func TestURLSearchParamsFromArrayOfPairs(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><p id="out"></p><script>
			var p = new URLSearchParams([["a", "1"], ["b", "2"]]);
			document.getElementById("out").textContent = p.get("a") + "," + p.get("b");
		</script></body></html>
	`)
	require.NoError(t, err)
	assert.NoError(t, h.AssertText("#out", "1,2"))
}
