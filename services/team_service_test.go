package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

type fakeUploader struct {
	keys []string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ *multipart.FileHeader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func fileHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("crest", filename)
	require.NoError(t, err)
	_, _ = part.Write([]byte("image"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["crest"][0]
}

func TestUpsertTeamByName(t *testing.T) {
	ctx := context.Background()
	svc := NewTeamService(store.NewMemoryStore(), nil)

	_, err := svc.UpsertByName(ctx, "Real Betis", models.TeamUpdate{})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	team, err := svc.UpsertByName(ctx, "Real Betis", models.TeamUpdate{Country: strPtr("Spain")})
	require.NoError(t, err)
	assert.Equal(t, "Real Betis", team.Name)
	assert.Equal(t, "real-betis", team.Slug)

	updated, err := svc.UpsertByName(ctx, "real-betis", models.TeamUpdate{Description: strPtr("Seville")})
	require.NoError(t, err)
	assert.Equal(t, team.ID, updated.ID)
	assert.Equal(t, "Seville", *updated.Description)

	renamed, err := svc.UpsertByName(ctx, "Real Betis", models.TeamUpdate{Name: strPtr("Betis")})
	require.NoError(t, err)
	assert.Equal(t, "betis", renamed.Slug)

	_, err = svc.UpsertByName(ctx, "Sevilla", models.TeamUpdate{Country: strPtr("Spain")})
	require.NoError(t, err)
	_, err = svc.UpsertByName(ctx, "Sevilla", models.TeamUpdate{Name: strPtr("Betis")})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	same, err := svc.UpsertByName(ctx, "Betis", models.TeamUpdate{Name: strPtr("Betis")})
	require.NoError(t, err)
	assert.Equal(t, team.ID, same.ID)
}

func TestUpsertTeamByID(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewTeamService(s, nil)

	_, err := svc.UpsertByID(ctx, 10, models.TeamUpdate{Name: strPtr("Ajax")})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	team, err := svc.UpsertByID(ctx, 10, models.TeamUpdate{Name: strPtr("Ajax"), Country: strPtr("Netherlands")})
	require.NoError(t, err)
	assert.Equal(t, uint(10), team.ID)

	next, err := svc.UpsertByName(ctx, "PSV", models.TeamUpdate{Country: strPtr("Netherlands")})
	require.NoError(t, err)
	assert.Greater(t, next.ID, uint(10))

	_, err = svc.UpsertByID(ctx, 10, models.TeamUpdate{Name: strPtr("PSV")})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	changed, err := svc.UpsertByID(ctx, 10, models.TeamUpdate{Country: strPtr("NL")})
	require.NoError(t, err)
	assert.Equal(t, "NL", changed.Country)
}

func TestDeleteTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.match(t, "10.00", 5, 5)
	svc := NewTeamService(f.store, nil)

	_, err := svc.DeleteTeam(ctx, "Porto")
	assert.ErrorIs(t, err, ErrValidation)

	deleted, err := svc.DeleteTeam(ctx, "lyon")
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, deleted.ID)

	_, err = svc.DeleteTeam(ctx, "lyon")
	assert.ErrorIs(t, err, ErrTeamNotFound)

	teams, err := svc.ListTeams(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}

func TestDeleteTeamAfterItsMatchIsDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.match(t, "10.00", 5, 5)
	svc := NewTeamService(f.store, nil)

	require.NoError(t, f.store.DeleteMatch(ctx, m.ID))
	_, err := svc.DeleteTeam(ctx, "Porto")
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "referenced by 1 matches")

	_, err = f.store.GetTeam(ctx, f.home.ID)
	assert.NoError(t, err)
}

func TestUploadCrest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := NewTeamService(f.store, nil).UploadCrest(ctx, "Porto", fileHeader(t, "crest.png"))
	assert.ErrorIs(t, err, ErrValidation)

	up := &fakeUploader{}
	svc := NewTeamService(f.store, up)

	_, err = svc.UploadCrest(ctx, "Porto", fileHeader(t, "crest.exe"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UploadCrest(ctx, "Nobody", fileHeader(t, "crest.png"))
	assert.ErrorIs(t, err, ErrTeamNotFound)

	team, err := svc.UploadCrest(ctx, "Porto", fileHeader(t, "Crest.PNG"))
	require.NoError(t, err)
	require.Len(t, up.keys, 1)
	assert.True(t, strings.HasPrefix(up.keys[0], "crests/porto/"))
	assert.True(t, strings.HasSuffix(up.keys[0], ".png"))
	assert.Equal(t, "https://cdn.example.com/"+up.keys[0], team.CrestURL)

	stored, err := f.store.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team.CrestURL, stored.CrestURL)

	up.err = errors.New("bucket gone")
	_, err = svc.UploadCrest(ctx, "Porto", fileHeader(t, "crest.png"))
	assert.Error(t, err)
	assert.Equal(t, Kind(""), KindOf(err))
}

func TestNormalizeCountry(t *testing.T) {
	cases := map[string]string{
		"spain":           "Spain",
		"  costa   rica ": "Costa Rica",
		"NL":              "NL",
		"Portugal":        "Portugal",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeCountry(in), in)
	}
}
