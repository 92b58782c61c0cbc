// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	uuid "github.com/hashicorp/go-uuid"
	"github.com/ipp-aug/ddww"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const cookieName = "DDWW_SRV"

// maxValues bounds the number of signal values of a run.
const maxValues = 1 << 22

// server runs round trips on behalf of browser sessions.
// Results of a run are kept under <dir>/id/<run-id> until the session
// expires or the run is removed.
type server struct {
	dir  string
	lib  ddww.Lib
	quit chan int

	mu      sync.RWMutex
	cookies map[string]*http.Cookie
	ids     map[string]map[string]struct{} // runs of each session
}

func newServer(dir string, lib ddww.Lib, mux *http.ServeMux) *server {
	srv := &server{
		dir:     dir,
		lib:     lib,
		quit:    make(chan int),
		cookies: make(map[string]*http.Cookie),
		ids:     make(map[string]map[string]struct{}),
	}
	go srv.run()

	mux.Handle("/", srv.wrap(srv.rootHandle))
	mux.Handle("/run", srv.wrap(srv.runHandle))
	mux.Handle("/dl", srv.wrap(srv.dlHandle))
	mux.Handle("/rm", srv.wrap(srv.rmHandle))
	return srv
}

func (srv *server) run() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			srv.gc(time.Now())
		case <-srv.quit:
			return
		}
	}
}

func (srv *server) Shutdown() {
	close(srv.quit)
}

// gc drops expired sessions and their results.
func (srv *server) gc(now time.Time) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	for name, cookie := range srv.cookies {
		if !now.After(cookie.Expires) {
			continue
		}
		for id := range srv.ids[name] {
			os.RemoveAll(srv.runDir(id))
		}
		delete(srv.ids, name)
		delete(srv.cookies, name)
	}
}

func (srv *server) runDir(id string) string {
	return filepath.Join(srv.dir, "id", id)
}

func (srv *server) setCookie(w http.ResponseWriter, r *http.Request) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	cookie, err := r.Cookie(cookieName)
	if err != nil && err != http.ErrNoCookie {
		return err
	}
	if cookie != nil {
		if _, ok := srv.cookies[cookie.Value]; ok {
			return nil
		}
	}

	v, err := uuid.GenerateUUID()
	if err != nil {
		return errors.Wrapf(err, "could not generate session id")
	}

	cookie = &http.Cookie{
		Name:    cookieName,
		Value:   v,
		Expires: time.Now().Add(24 * time.Hour),
	}
	srv.cookies[cookie.Value] = cookie
	srv.ids[cookie.Value] = make(map[string]struct{})
	http.SetCookie(w, cookie)
	return nil
}

// session returns the known session of r.
func (srv *server) session(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", errors.Wrap(err, "could not retrieve cookie")
	}
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	if _, ok := srv.cookies[cookie.Value]; !ok {
		return "", errors.Errorf("unknown session %q", cookie.Value)
	}
	return cookie.Value, nil
}

func (srv *server) wrap(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := srv.setCookie(w, r)
		if err != nil {
			log.Printf("error retrieving cookie: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := fn(w, r); err != nil {
			log.Printf("error %q: %v", r.URL.Path, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func (srv *server) rootHandle(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return errors.Errorf("invalid request %q for /", r.Method)
	}

	t, err := template.New("page").Parse(page)
	if err != nil {
		return err
	}

	return t.Execute(w, ddww.DefaultConfig())
}

// result is the reply to a /run request.
type result struct {
	Image   string `json:"data"`
	Edition int32  `json:"edition"`
	Date    string `json:"date"`
}

func (srv *server) runHandle(w http.ResponseWriter, r *http.Request) error {
	sid, err := srv.session(r)
	if err != nil {
		return err
	}

	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		return errors.Wrapf(err, "could not parse multipart form")
	}

	id := r.PostFormValue("id")
	err = checkID(id)
	if err != nil {
		return err
	}

	cfg, n, blk, err := formConfig(r)
	if err != nil {
		return err
	}
	cfg.Log = log.Default()

	data, err := formData(r, n, blk)
	if err != nil {
		return err
	}

	log.Printf("run %s: %s:%s:%d range=[%d, %d] samples=%d block=%d",
		id, cfg.Exp, cfg.Diag, cfg.Shot, cfg.K1, cfg.K2, len(data.Time), data.Block(),
	)

	rb, err := ddww.Run(srv.lib, cfg, data)
	if err != nil {
		return errors.Wrapf(err, "could not run %s:%s:%d", cfg.Exp, cfg.Diag, cfg.Shot)
	}

	const (
		width  = 20 * vg.Centimeter
		height = 30 * vg.Centimeter
	)

	c := vgimg.PngCanvas{Canvas: vgimg.New(width, height)}
	err = ddww.Plot(draw.New(c), rb, data)
	if err != nil {
		return errors.Wrapf(err, "could not create in-memory plot")
	}

	img := new(bytes.Buffer)
	_, err = c.WriteTo(img)
	if err != nil {
		return errors.Wrapf(err, "could not create image plot")
	}

	srv.mu.Lock()
	if srv.ids[sid] == nil {
		srv.ids[sid] = make(map[string]struct{})
	}
	srv.ids[sid][id] = struct{}{}
	srv.mu.Unlock()

	err = srv.save(srv.runDir(id), img.Bytes(), rb)
	if err != nil {
		return errors.Wrapf(err, "could not save results of run %q", id)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err = json.NewEncoder(w).Encode(result{
		Image:   base64.StdEncoding.EncodeToString(img.Bytes()),
		Edition: rb.Edition,
		Date:    rb.Date,
	})
	if err != nil {
		return errors.Wrapf(err, "could not encode to json")
	}

	return nil
}

func formConfig(r *http.Request) (cfg ddww.Config, n, blk int, err error) {
	cfg = ddww.DefaultConfig()
	if v := r.PostFormValue("exp"); v != "" {
		cfg.Exp = v
	}

	var nt, nb int32 = 223, 16
	ints := []struct {
		name string
		dst  *int32
	}{
		{"shot", &cfg.Shot},
		{"k1", &cfg.K1},
		{"k2", &cfg.K2},
		{"cross", &cfg.Cross[0]},
		{"n", &nt},
		{"blk", &nb},
	}

	for _, v := range ints {
		txt := r.PostFormValue(v.name)
		if txt == "" {
			continue
		}
		i, err := strconv.ParseInt(txt, 10, 32)
		if err != nil {
			return cfg, n, blk, errors.Wrapf(err, "could not parse %s", v.name)
		}
		if i < 1 {
			return cfg, n, blk, errors.Errorf("invalid %s=%d", v.name, i)
		}
		*v.dst = int32(i)
	}
	cfg.Repeat = r.PostFormValue("repeat") == "on"

	err = cfg.Shotfile.Validate()
	if err != nil {
		return cfg, n, blk, err
	}

	n, blk = int(nt), int(nb)
	if int64(n)*int64(blk) > maxValues {
		return cfg, n, blk, errors.Errorf("too many values (n=%d, blk=%d, max=%d)", n, blk, maxValues)
	}
	return cfg, n, blk, nil
}

// checkID rejects run IDs that are not UUIDs.
func checkID(id string) error {
	_, err := uuid.ParseUUID(id)
	if err != nil {
		return errors.Wrapf(err, "invalid run ID %q", id)
	}
	return nil
}

// formData loads the uploaded time base, area base and signal group, or
// returns a synthetic data set when none was uploaded.
func formData(r *http.Request, n, blk int) (ddww.Data, error) {
	var data ddww.Data

	files := make(map[string]io.ReadCloser)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, name := range []string{"time", "area", "signal"} {
		f, _, err := r.FormFile(name)
		switch {
		case err == http.ErrMissingFile:
			continue
		case err != nil:
			return data, errors.Wrapf(err, "could not access %s file", name)
		}
		files[name] = f
	}

	switch len(files) {
	case 0:
		data = ddww.Synthetic(n, blk)
		return data, data.Validate()
	case 3:
	default:
		return data, errors.Errorf("time, area and signal files must be uploaded together")
	}

	var err error
	data.Time, err = ddww.LoadTimeBase(files["time"])
	if err != nil {
		return data, err
	}
	data.Area, err = ddww.LoadArea(files["area"])
	if err != nil {
		return data, err
	}
	data.Sizes = [3]int32{int32(len(data.Area)), 0, 0}
	data.Signal, err = ddww.LoadSignal(files["signal"], blk)
	if err != nil {
		return data, err
	}
	return data, data.Validate()
}

func (srv *server) lookup(r *http.Request, id string) error {
	sid, err := srv.session(r)
	if err != nil {
		return err
	}
	err = checkID(id)
	if err != nil {
		return err
	}

	srv.mu.RLock()
	defer srv.mu.RUnlock()
	if _, ok := srv.ids[sid][id]; !ok {
		return errors.Errorf("unknown run ID %q", id)
	}
	return nil
}

func (srv *server) dlHandle(w http.ResponseWriter, r *http.Request) error {
	err := r.ParseForm()
	if err != nil {
		return errors.Wrapf(err, "could not parse form")
	}

	id := r.Form.Get("id")
	err = srv.lookup(r, id)
	if err != nil {
		return err
	}

	fname := filepath.Join(srv.runDir(id), "readback.csv")
	f, err := os.Open(fname)
	if err != nil {
		return errors.Wrapf(err, "could not open readback of run %q", id)
	}
	defer f.Close()

	w.Header().Set("Content-Description", "File Transfer")
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=readback-%s.csv", id))
	w.Header().Set("Content-Type", "application/force-download")

	_, err = io.Copy(w, f)
	if err != nil {
		return errors.Wrapf(err, "could not copy readback of run %q", id)
	}

	return nil
}

func (srv *server) rmHandle(w http.ResponseWriter, r *http.Request) error {
	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		return errors.Wrapf(err, "could not parse multipart form")
	}

	id := r.PostFormValue("id")
	err = srv.lookup(r, id)
	if err != nil {
		return err
	}

	sid, _ := srv.session(r)
	srv.mu.Lock()
	delete(srv.ids[sid], id)
	srv.mu.Unlock()

	err = os.RemoveAll(srv.runDir(id))
	if err != nil {
		return errors.Wrapf(err, "could not remove results of run %q", id)
	}

	return nil
}

func (srv *server) save(dir string, img []byte, rb ddww.Readback) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "could not create output directory")
	}

	err = os.WriteFile(filepath.Join(dir, "readback.png"), img, 0644)
	if err != nil {
		return errors.Wrapf(err, "could not save plot")
	}

	o, err := os.Create(filepath.Join(dir, "readback.csv"))
	if err != nil {
		return errors.Wrapf(err, "could not create output data file")
	}
	defer o.Close()

	err = ddww.Dump(o, rb)
	if err != nil {
		return err
	}

	err = o.Close()
	if err != nil {
		return errors.Wrapf(err, "could not close output data file")
	}
	return nil
}

const page = `<html>
<head>
	<title>YPR shotfile round trip</title>
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<link rel="stylesheet" href="https://www.w3schools.com/w3css/3/w3.css">
	<script src="https://ajax.googleapis.com/ajax/libs/jquery/3.1.1/jquery.min.js"></script>

<script type="text/javascript">
	"use strict"

	function run() {
		var id = uuidv4();
		var data = new FormData();
		["exp", "shot", "k1", "k2", "cross", "n", "blk"].forEach(function(name) {
			data.append(name, $("#"+name).val());
		});
		if ($("#repeat").is(":checked")) {
			data.append("repeat", "on");
		}
		["time", "area", "signal"].forEach(function(name) {
			var f = $("#"+name)[0].files[0];
			if (f) {
				data.append(name, f, f.name);
			}
		});
		data.append("id", id);

		$.ajax({
			url: "/run",
			method: "POST",
			data: data,
			processData: false,
			contentType: false,
			success: function(reply) { display(reply, id); },
			error: function(e) { alert("run failed: "+e.responseText); }
		});
	};

	function uuidv4() {
		return 'xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx'.replace(/[xy]/g, function(c) {
			var r = Math.random() * 16 | 0, v = c == 'x' ? r : (r & 0x3 | 0x8);
			return v.toString(16);
		});
	}

	function display(reply, id) {
		var node = $("<div></div>");
		node.attr("id", id);
		node.addClass("w3-panel w3-white w3-card-2 w3-display-container w3-center");
		node.html(
			"<p>edition "+reply.edition+" ("+reply.date+")</p>"
			+"<img src=\"data:image/png;base64, "+reply.data+"\" />"
			+"<span onclick=\"rm('"+id+"')\" class=\"w3-button w3-display-topright w3-hover-red w3-tiny\">X</span>"
			+"<form><input type=\"button\" value=\"Download\" onclick=\"window.location.href='/dl?id="+id+"'\"/></form>"
		);
		$("#app-display").prepend(node);
	};

	function rm(id) {
		var data = new FormData();
		data.append("id", id);
		$.ajax({url: "/rm", method: "POST", data: data, processData: false, contentType: false});
		$("#"+id).remove();
	}
</script>
</head>
<body>

<div class="w3-sidebar w3-bar-block w3-card-4 w3-light-grey" style="width:25%">
	<div class="w3-bar-item w3-card-2 w3-black">
		<h2>{{.Diag}} round trip</h2>
	</div>
	<div class="w3-bar-item">
		<form id="app-form" enctype="multipart/form-data">
			Experiment: <input id="exp" type="text" value="{{.Exp}}"><br>
			Shot: <input id="shot" type="number" min="1" value="{{.Shot}}"><br>
			k1: <input id="k1" type="number" min="1" value="{{.K1}}"><br>
			k2: <input id="k2" type="number" min="1" value="{{.K2}}"><br>
			Cross index: <input id="cross" type="number" min="1" value="{{index .Cross 0}}"><br>
			Samples: <input id="n" type="number" min="1" value="223"><br>
			Block size: <input id="blk" type="number" min="1" value="16"><br>
			Repeat first block: <input id="repeat" type="checkbox"><br>
			Time base: <input id="time" type="file"><br>
			Area base: <input id="area" type="file"><br>
			Signal: <input id="signal" type="file"><br>
			<input type="button" onclick="run()" value="Run">
		</form>
	</div>
</div>

<div style="margin-left:25%" class="w3-grey">
	<div class="w3-container" id="app-display"></div>
</div>

</body>
</html>
`
