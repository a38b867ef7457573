package server

import (
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/pkg/api"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en" class="{{.Theme}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Active.Name}} - inkpad</title>
<style>
body{margin:0;font-family:system-ui,sans-serif;line-height:1.6}
html.dark body{background:#111827;color:#f3f4f6}
html.light body{background:#ffffff;color:#111827}
nav{display:flex;gap:.5rem;padding:.5rem 1rem;border-bottom:1px solid #9ca3af}
nav span{padding:.1rem .6rem;border-radius:.4rem}
nav span.active{background:#2563eb;color:#fff}
#notice{margin:.5rem 1rem;padding:.5rem 1rem;border-radius:.4rem;background:#dbeafe;color:#1e3a8a}
#notice.error{background:#fee2e2;color:#7f1d1d}
#notice.success{background:#dcfce7;color:#14532d}
#saved{float:right;font-size:.8rem;opacity:.7}
main{max-width:48rem;margin:1rem auto;padding:0 1rem}
pre{padding:1rem;border-radius:.5rem;overflow-x:auto}
</style>
</head>
<body>
<nav>{{range .Documents}}<span{{if eq .ID $.Active.ID}} class="active"{{end}}>{{.Name}}</span>{{end}}<span id="saved" hidden>Auto-saved</span></nav>
{{with .Notice}}<div id="notice" class="{{.Level}}">{{.Message}}{{if .Sticky}} <button onclick="inkpadDismiss(this)">Dismiss</button>{{end}}</div>{{end}}
<main id="preview">{{.Preview}}</main>
<script>
(function(){
  var tok = {{.Token}};
  var q = tok ? "?token=" + encodeURIComponent(tok) : "";
  window.inkpadDismiss = function(btn){
    fetch("/v1/notice" + q, {method: "DELETE"});
    btn.parentNode.remove();
  };
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/v1/live" + q);
  ws.onmessage = function(e){
    var m = JSON.parse(e.data);
    if (m.html !== undefined) document.getElementById("preview").innerHTML = m.html;
    document.getElementById("saved").hidden = !m.saved;
  };
})();
</script>
</body>
</html>
`))

type noticeView struct {
	Level   string
	Message string
	Sticky  bool
}

type indexView struct {
	Theme     api.Theme
	Active    api.Document
	Documents []api.Document
	Notice    *noticeView
	Preview   template.HTML
	Token     string
}

// handleIndex serves the preview page. A share token in the query replaces
// the collection first and then redirects, so a reload cannot repeat it.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if tok, ok := s.sharedToken(r); ok {
		if loaded, err := s.session.LoadShared(ctx, tok); !loaded {
			s.log.Info("shared link ignored", zap.Error(err))
		}
		http.Redirect(w, r, s.indexURL(r), http.StatusSeeOther)
		return
	}

	st := s.session.State()
	view := indexView{
		Theme:     s.theme.Load(ctx),
		Active:    st.Active,
		Documents: st.Documents,
		Preview:   template.HTML(render.HTML(st.Active.Content)),
	}
	if s.authToken() != "" {
		view.Token = requestToken(r)
	}
	if n, ok := s.notices.Current(); ok {
		view.Notice = &noticeView{Level: n.Level.String(), Message: n.Message, Sticky: n.Sticky}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, view); err != nil {
		s.log.Warn("render index", zap.Error(err))
	}
}

// indexURL is "/" carrying the query token over, so the redirected page
// still passes auth.
func (s *Server) indexURL(r *http.Request) string {
	tok := r.URL.Query().Get("token")
	if s.authToken() == "" || tok == "" {
		return "/"
	}
	return "/?" + url.Values{"token": {tok}}.Encode()
}
