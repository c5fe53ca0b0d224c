package upload

import "testing"

func TestMetadataValidate(t *testing.T) {
	valid := Metadata{Title: "My Dummy Video", Description: "d", Category: PeopleAndBlogs, Privacy: PrivacyPrivate}

	tests := []struct {
		name    string
		mutate  func(m *Metadata)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Metadata) {}},
		{name: "categoryByName", mutate: func(m *Metadata) { m.Category = "Music" }},
		{name: "unlisted", mutate: func(m *Metadata) { m.Privacy = PrivacyUnlisted }},
		{name: "emptyTitle", mutate: func(m *Metadata) { m.Title = "" }, wantErr: true},
		{name: "badPrivacy", mutate: func(m *Metadata) { m.Privacy = "secret" }, wantErr: true},
		{name: "emptyPrivacy", mutate: func(m *Metadata) { m.Privacy = "" }, wantErr: true},
		{name: "unknownCategory", mutate: func(m *Metadata) { m.Category = "999" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			if err := m.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetadataVideo(t *testing.T) {
	m := Metadata{Title: "T", Description: "D", Category: "Gaming", Privacy: PrivacyPublic}
	v := m.Video()

	if v.Snippet.Title != "T" || v.Snippet.Description != "D" {
		t.Errorf("snippet = %+v", v.Snippet)
	}
	if v.Snippet.CategoryId != "20" {
		t.Errorf("CategoryId = %q, want 20", v.Snippet.CategoryId)
	}
	if v.Status.PrivacyStatus != PrivacyPublic {
		t.Errorf("PrivacyStatus = %q, want public", v.Status.PrivacyStatus)
	}
	if v.Snippet.Tags != nil {
		t.Errorf("Tags = %v, want nil", v.Snippet.Tags)
	}

	m.Tags = []string{"a", "b"}
	if got := m.Video().Snippet.Tags; len(got) != 2 {
		t.Errorf("Tags = %v, want [a b]", got)
	}
}

func TestCategoryID(t *testing.T) {
	tests := map[string]string{
		"22":             "22",
		"People & Blogs": "22",
		"Comedy":         "23",
		"Nope":           "",
		"":               "",
	}
	for in, want := range tests {
		if got := CategoryID(in); got != want {
			t.Errorf("CategoryID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	c := Categories()
	c["22"] = "changed"
	if CategoryID("People & Blogs") != "22" {
		t.Error("Categories() exposed the internal map")
	}
}
