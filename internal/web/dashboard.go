package web

import "net/http"

// ServeDashboard serves the review dashboard page
func ServeDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>redactview</title>
<style>
body { font-family: ui-monospace, monospace; margin: 2rem; background: #111; color: #ddd; }
h1 { font-size: 1.2rem; }
#events { list-style: none; padding: 0; }
#events li { padding: 0.3rem 0.5rem; border-bottom: 1px solid #333; }
.type { color: #7bd88f; margin-right: 0.5rem; }
</style>
</head>
<body>
<h1>redactview — live detection events</h1>
<ul id="events"></ul>
<script>
const list = document.getElementById("events");
const proto = location.protocol === "https:" ? "wss" : "ws";
const ws = new WebSocket(proto + "://" + location.host + "/ws");
ws.onmessage = (msg) => {
	const ev = JSON.parse(msg.data);
	const li = document.createElement("li");
	li.innerHTML = '<span class="type">' + ev.type + '</span>' +
		JSON.stringify(ev.data);
	list.prepend(li);
	while (list.children.length > 100) list.removeChild(list.lastChild);
};
</script>
</body>
</html>
`
