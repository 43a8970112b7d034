package harness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/scripthost/harness"
)

func TestClickAnchorRecordsNavigation(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTMLWithURL("https://example.test/index.html", `
		<html><body><a id="link" href="/next">go</a></body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Click("#link"))

	navs := h.TakeLocationNavigations()
	require.Len(t, navs, 1)
	assert.Equal(t, "Assign", navs[0].Kind)
	assert.Equal(t, "https://example.test/next", navs[0].To)
}

func TestClickDownloadAnchorDoesNotNavigate(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><a id="link" href="/file.csv" download>get</a></body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Click("#link"))

	assert.Empty(t, h.TakeLocationNavigations())
	assert.Equal(t, []string{"/file.csv"}, h.TakeDownloads())
}

func TestClickListenerCanPreventDefaultNavigation(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<a id="link" href="/next">go</a>
			<script>
				document.getElementById("link").addEventListener("click", function(e) {
					e.preventDefault();
				});
			</script>
		</body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Click("#link"))

	assert.Empty(t, h.TakeLocationNavigations())
}

func TestSubmitWithheldWhenFormInvalid(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<form id="f">
				<input id="name" required>
				<button id="go" type="submit">go</button>
			</form>
			<p id="out">not submitted</p>
			<script>
				document.getElementById("f").addEventListener("submit", function() {
					document.getElementById("out").textContent = "submitted";
				});
			</script>
		</body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Click("#go"))

	assert.NoError(t, h.AssertText("#out", "not submitted"))
}

func TestSubmitFiresWhenFormValid(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<form id="f">
				<button id="go" type="submit">go</button>
			</form>
			<p id="out">not submitted</p>
			<script>
				document.getElementById("f").addEventListener("submit", function(e) {
					e.preventDefault();
					document.getElementById("out").textContent = "submitted";
				});
			</script>
		</body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Click("#go"))

	assert.NoError(t, h.AssertText("#out", "submitted"))
}

func TestTypeTextDispatchesInputThenChange(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<input id="name">
			<p id="out"></p>
			<script>
				var seen = [];
				var el = document.getElementById("name");
				el.addEventListener("input", function() { seen.push("input:" + el.value); });
				el.addEventListener("change", function() {
					seen.push("change:" + el.value);
					document.getElementById("out").textContent = seen.join(",");
				});
			</script>
		</body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.TypeText("#name", "hello"))

	assert.NoError(t, h.AssertText("#out", "input:hello,change:hello"))
}

func TestWebSocketMockPlaysBackMessagesInOrder(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<p id="out"></p>
			<script>
				var log = [];
				function report() { document.getElementById("out").textContent = log.join(","); }
			</script>
		</body></html>
	`)
	require.NoError(t, err)
	defer h.Close()

	h.SetWebSocketMock("wss://example.test/feed", []string{"hello", "world"})
	require.NoError(t, h.RunScript(`
		var ws = new WebSocket("wss://example.test/feed");
		ws.onopen = function() { log.push("open"); report(); };
		ws.onmessage = function(e) { log.push("msg:" + e.data); report(); };
		ws.onclose = function() { log.push("close"); report(); };
	`))
	h.Flush()

	assert.NoError(t, h.AssertText("#out", "open,msg:hello,msg:world,close"))
}

func TestWebSocketWithNoRegisteredMockFailsClosed(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<p id="out">pending</p>
			<script>
				var ws = new WebSocket("wss://example.test/missing");
				ws.onerror = function() { document.getElementById("out").textContent = "errored"; };
			</script>
		</body></html>
	`)
	require.NoError(t, err)
	defer h.Close()

	h.Flush()

	assert.NoError(t, h.AssertText("#out", "errored"))
}

func TestPressEnterFollowsAnchorUnlessPrevented(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTMLWithURL("https://example.test/", `
		<html><body><a id="link" href="/next">go</a></body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.PressEnter("#link"))

	navs := h.TakeLocationNavigations()
	require.Len(t, navs, 1)
	assert.Equal(t, "https://example.test/next", navs[0].To)
}

func TestClickBlankTargetAnchorDoesNotNavigate(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body><a id="link" href="/next" target="_blank">go</a></body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Click("#link"))

	assert.Empty(t, h.TakeLocationNavigations())
	assert.Empty(t, h.TakeDownloads())
}

func TestFocusDispatchesFocusEvent(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`
		<html><body>
			<input id="name">
			<p id="out">blurred</p>
			<script>
				document.getElementById("name").addEventListener("focus", function() {
					document.getElementById("out").textContent = "focused";
				});
			</script>
		</body></html>
	`)
	require.NoError(t, err)

	require.NoError(t, h.Focus("#name"))

	assert.NoError(t, h.AssertText("#out", "focused"))
}

func TestAssertTextMismatchReturnsError(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`<html><body><p id="msg">hi</p></body></html>`)
	require.NoError(t, err)

	assert.NoError(t, h.AssertText("#msg", "hi"))
	assert.Error(t, h.AssertText("#msg", "bye"))
}

func TestFetchMockResolvesRegisteredURL(t *testing.T) {
	t.Parallel()
	h, err := harness.FromHTML(`<html><body><p id="out">pending</p></body></html>`)
	require.NoError(t, err)

	h.SetFetchMock("/api/greeting", "hello there")
	require.NoError(t, h.RunScript(`fetch("/api/greeting").then(function(r) { return r.text(); }).then(function(body) {
		document.getElementById("out").textContent = body;
	});`))
	h.Flush()

	assert.NoError(t, h.AssertText("#out", "hello there"))
}
