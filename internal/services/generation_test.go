package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/auth"
	"github.com/remi-music/studio/internal/config"
	"github.com/remi-music/studio/internal/events"
	"github.com/remi-music/studio/internal/gateway"
	"github.com/remi-music/studio/internal/models"
	"github.com/remi-music/studio/internal/relay"
)

// fakeMusicGateway is a minimal music gateway for tests.
type fakeMusicGateway struct {
	calls    int
	response *gateway.MusicResponse
	err      error
}

func (f *fakeMusicGateway) Generate(ctx context.Context, prompt, lyrics string, settings models.AudioSettings) (*gateway.MusicResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

// fakeRelay returns a canned relay result.
type fakeRelay struct {
	calls  int
	result relay.Result
}

func (f *fakeRelay) Rehost(ctx context.Context, audioURL, audioHex, format string) relay.Result {
	f.calls++
	return f.result
}

// fakeGenerationRepo records inserts and can be forced to fail.
type fakeGenerationRepo struct {
	insertErr error
	inserted  *models.GenerationRecord
	entries   []*models.HistoryEntry
	listErr   error
}

func (f *fakeGenerationRepo) Insert(ctx context.Context, rec *models.GenerationRecord) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.inserted = rec
	return rec.ID, nil
}

func (f *fakeGenerationRepo) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	events []events.GenerationFinished
	err    error
}

func (f *fakePublisher) PublishGenerationFinished(ctx context.Context, event events.GenerationFinished) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultSampleRate: 44100,
		DefaultBitrate:    256000,
		DefaultFormat:     "mp3",
		GenerationTimeout: 120 * time.Second,
		SideStepTimeout:   15 * time.Second,
	}
}

func strPtr(s string) *string { return &s }

func validRequest() *models.GenerationRequest {
	return &models.GenerationRequest{
		Prompt: "A heartfelt pop ballad with piano",
		Lyrics: "[Verse]\nWalking home alone tonight\n[Chorus]\nThis is my song",
		AudioSetting: &models.AudioSettings{
			SampleRate: 44100,
			Bitrate:    256000,
			Format:     "mp3",
		},
	}
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		lyrics string
	}{
		{"prompt too short", "too short", strings.Repeat("la ", 20)},
		{"prompt too long", strings.Repeat("x", 2001), strings.Repeat("la ", 20)},
		{"prompt too short multibyte", strings.Repeat("歌", 4), strings.Repeat("la ", 20)},
		{"prompt too long multibyte", strings.Repeat("歌", 2001), strings.Repeat("la ", 20)},
		{"lyrics too short", "a fine pop ballad style", "short"},
		{"lyrics too long", "a fine pop ballad style", strings.Repeat("x", 3001)},
		{"lyrics too short multibyte", "a fine pop ballad style", strings.Repeat("歌", 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeMusicGateway{}
			rl := &fakeRelay{}
			repo := &fakeGenerationRepo{}
			svc := NewGenerationService(gw, rl, repo, nil, testConfig())

			_, err := svc.Generate(context.Background(), &models.GenerationRequest{Prompt: tt.prompt, Lyrics: tt.lyrics})

			var valErr *models.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			// Bounds violations must be caught before any network call
			if gw.calls != 0 || rl.calls != 0 {
				t.Errorf("expected zero network calls, gateway=%d relay=%d", gw.calls, rl.calls)
			}
		})
	}
}

func TestGenerate_BoundsCountCharactersNotBytes(t *testing.T) {
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{}}
	svc := NewGenerationService(gw, &fakeRelay{}, &fakeGenerationRepo{}, nil, testConfig())

	// 1500 CJK characters are 4500 bytes; both fields sit inside their
	// character bounds and must pass validation.
	req := &models.GenerationRequest{
		Prompt: strings.Repeat("歌", 1500),
		Lyrics: strings.Repeat("歌", 2500),
	}
	if _, err := svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("expected multibyte text within bounds to pass, got %v", err)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.calls)
	}
}

func TestGenerate_GatewayFailureIsFatal(t *testing.T) {
	gw := &fakeMusicGateway{err: &gateway.Error{StatusCode: 500, Message: "upstream down"}}
	repo := &fakeGenerationRepo{}
	svc := NewGenerationService(gw, &fakeRelay{}, repo, nil, testConfig())

	_, err := svc.Generate(context.Background(), validRequest())

	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *gateway.Error, got %T", err)
	}
	if repo.inserted != nil {
		t.Error("expected no record insert after gateway failure")
	}
}

func TestGenerate_Success_EndToEnd(t *testing.T) {
	gw := &fakeMusicGateway{
		response: &gateway.MusicResponse{
			AudioURL: "https://upstream.example.com/song.mp3",
			Metadata: map[string]interface{}{"duration": 31.2, "model": "music-2.0"},
		},
	}
	rl := &fakeRelay{result: relay.Result{AudioURL: strPtr("https://cdn.example.com/generated/music_1.mp3")}}
	repo := &fakeGenerationRepo{}
	pub := &fakePublisher{}
	svc := NewGenerationService(gw, rl, repo, pub, testConfig())

	req := validRequest()
	result, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if result.Prompt != req.Prompt || result.Lyrics != req.Lyrics {
		t.Error("expected prompt and lyrics echoed verbatim")
	}
	if result.AudioSettings.Format != "mp3" {
		t.Errorf("format = %q, want mp3", result.AudioSettings.Format)
	}
	if result.AudioURL == nil || *result.AudioURL != "https://cdn.example.com/generated/music_1.mp3" {
		t.Errorf("audio URL = %v", result.AudioURL)
	}
	if result.Duration == nil || *result.Duration != 31.2 {
		t.Errorf("duration = %v, want 31.2", result.Duration)
	}
	if result.ID == nil {
		t.Error("expected record id after successful insert")
	}
	if result.Metadata["model"] != "music-2.0" {
		t.Error("expected gateway metadata passed through")
	}
	if repo.inserted == nil || repo.inserted.Format != "mp3" {
		t.Error("expected persisted record with request settings")
	}
	if len(pub.events) != 1 || !pub.events[0].HasAudio {
		t.Errorf("expected one finished event with audio, got %+v", pub.events)
	}
}

func TestGenerate_PersistenceFailureDegradesIDOnly(t *testing.T) {
	gw := &fakeMusicGateway{
		response: &gateway.MusicResponse{
			AudioURL: "https://upstream.example.com/song.mp3",
			Metadata: map[string]interface{}{"duration": 10.0},
		},
	}
	rl := &fakeRelay{result: relay.Result{AudioURL: strPtr("https://cdn.example.com/x.mp3")}}
	repo := &fakeGenerationRepo{insertErr: errors.New("db down")}
	svc := NewGenerationService(gw, rl, repo, nil, testConfig())

	result, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}

	if result.ID != nil {
		t.Error("expected nil id after failed insert")
	}
	if result.AudioURL == nil || *result.AudioURL != "https://cdn.example.com/x.mp3" {
		t.Error("audio URL must be unaffected by persistence failure")
	}
	if result.Duration == nil || *result.Duration != 10.0 {
		t.Error("duration must be unaffected by persistence failure")
	}
}

func TestGenerate_NoAudioIsDegradedSuccess(t *testing.T) {
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{Metadata: map[string]interface{}{"duration": 5.0}}}
	svc := NewGenerationService(gw, &fakeRelay{}, &fakeGenerationRepo{}, nil, testConfig())

	result, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}
	if result.AudioURL != nil || result.AudioData != nil {
		t.Error("expected nil audio location")
	}
	if result.Duration == nil {
		t.Error("expected metadata duration to survive")
	}
}

func TestGenerate_DefaultsAppliedWhenSettingsOmitted(t *testing.T) {
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{}}
	svc := NewGenerationService(gw, &fakeRelay{}, &fakeGenerationRepo{}, nil, testConfig())

	req := validRequest()
	req.AudioSetting = nil
	result, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := models.AudioSettings{SampleRate: 44100, Bitrate: 256000, Format: "mp3"}
	if result.AudioSettings != want {
		t.Errorf("settings = %+v, want %+v", result.AudioSettings, want)
	}
}

func TestGenerate_TruncatesStoredHex(t *testing.T) {
	longHex := strings.Repeat("ab", 900) // 1800 chars
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{Audio: longHex}}
	rl := &fakeRelay{result: relay.Result{AudioHex: &longHex}}
	repo := &fakeGenerationRepo{}
	svc := NewGenerationService(gw, rl, repo, nil, testConfig())

	result, err := svc.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if repo.inserted.AudioData == nil || len(*repo.inserted.AudioData) != maxStoredHexChars {
		t.Errorf("stored hex length = %v, want %d", repo.inserted.AudioData, maxStoredHexChars)
	}
	// The returned result keeps the full payload for client-side playback
	if result.AudioData == nil || len(*result.AudioData) != len(longHex) {
		t.Error("result must carry the untruncated hex payload")
	}
}

func TestGenerate_CallerIdentityRecorded(t *testing.T) {
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{}}
	repo := &fakeGenerationRepo{}
	svc := NewGenerationService(gw, &fakeRelay{}, repo, nil, testConfig())

	userID := uuid.New()
	ctx := context.WithValue(context.Background(), auth.UserIDKey, &userID)

	if _, err := svc.Generate(ctx, validRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if repo.inserted.UserID == nil || *repo.inserted.UserID != userID {
		t.Errorf("record user id = %v, want %s", repo.inserted.UserID, userID)
	}
}

func TestGenerate_AnonymousWhenNoIdentity(t *testing.T) {
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{}}
	repo := &fakeGenerationRepo{}
	svc := NewGenerationService(gw, &fakeRelay{}, repo, nil, testConfig())

	if _, err := svc.Generate(context.Background(), validRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if repo.inserted.UserID != nil {
		t.Errorf("expected anonymous record, got user %v", repo.inserted.UserID)
	}
}

func TestGenerate_EventFailureIsAbsorbed(t *testing.T) {
	gw := &fakeMusicGateway{response: &gateway.MusicResponse{}}
	pub := &fakePublisher{err: errors.New("kafka down")}
	svc := NewGenerationService(gw, &fakeRelay{}, &fakeGenerationRepo{}, pub, testConfig())

	if _, err := svc.Generate(context.Background(), validRequest()); err != nil {
		t.Fatalf("expected success despite event failure, got %v", err)
	}
}

func TestHistory_PassesThrough(t *testing.T) {
	entries := []*models.HistoryEntry{
		{ID: uuid.New(), Prompt: "second", CreatedAt: time.Now()},
		{ID: uuid.New(), Prompt: "first", CreatedAt: time.Now().Add(-time.Hour)},
	}
	repo := &fakeGenerationRepo{entries: entries}
	svc := NewGenerationService(&fakeMusicGateway{}, &fakeRelay{}, repo, nil, testConfig())

	got, err := svc.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 || got[0].Prompt != "second" {
		t.Errorf("unexpected history: %+v", got)
	}
}
