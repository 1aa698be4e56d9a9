package ui

import (
	"embed"
	"html/template"
	"io/fs"
	"time"

	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

//go:embed templates/*
var templateFS embed.FS

var templates = mustParseTemplates()

var funcMap = template.FuncMap{
	"formatTime": func(t interface{}) string {
		switch v := t.(type) {
		case nil:
			return ""
		case time.Time:
			if v.IsZero() {
				return ""
			}
			return v.Format("2006-01-02 15:04")
		case *time.Time:
			if v == nil {
				return ""
			}
			return v.Format("2006-01-02 15:04")
		}
		return ""
	},
	"eventWhen": func(t model.EventTime) string {
		if t.Date != "" {
			return t.Date + " (all day)"
		}
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed.Format("2006-01-02 15:04")
		}
		return t.DateTime
	},
	"dateValue": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
}

func mustParseTemplates() map[string]*template.Template {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}

	base := template.Must(template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html"))

	sets := make(map[string]*template.Template)
	for _, file := range files {
		if file == "templates/base.html" {
			continue
		}

		set := template.Must(base.Clone())
		template.Must(set.ParseFS(templateFS, file))
		sets[file[len("templates/"):]] = set
	}

	return sets
}
