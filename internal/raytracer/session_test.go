package raytracer

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"rayrows/internal/threading/core"
	"rayrows/internal/threading/session"
	"rayrows/internal/threading/workers"
)

// =============================================================================
// COORDINATED RENDER TESTS
// =============================================================================

func TestCoordinatedRenderMatchesDirect(t *testing.T) {
	const width, height = 24, 12

	scene := smallScene()
	blob, err := scene.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	s, err := session.New(1, session.Request{
		Width:            width,
		Height:           height,
		Workers:          4,
		HandshakeTimeout: 5 * time.Second,
		Factory:          NewFactory(fastOptions),
		Scenes: session.SceneFunc(func() (workers.Scene, error) {
			return blob, nil
		}),
	}, log.New(io.Discard, "", 0), nil)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pool := core.NewWorkerPool(2)
	pool.Start()
	defer pool.Stop()
	decoded, err := DecodeScene(blob)
	if err != nil {
		t.Fatalf("DecodeScene failed: %v", err)
	}
	direct, err := RenderImage(ctx, pool, NewTracer(decoded, width, height, fastOptions))
	if err != nil {
		t.Fatalf("RenderImage failed: %v", err)
	}

	if !bytes.Equal(s.Frame().Snapshot(), direct.Snapshot()) {
		t.Error("Expected coordinated and direct renders to be byte-identical")
	}
}

func TestSceneGeneratorFromFile(t *testing.T) {
	blob, err := smallScene().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	path := t.TempDir() + "/scene.yaml"
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	got, err := SceneGenerator{Path: path}.GenerateScene()
	if err != nil {
		t.Fatalf("GenerateScene failed: %v", err)
	}
	scene, err := DecodeScene(got)
	if err != nil {
		t.Fatalf("DecodeScene failed: %v", err)
	}
	if len(scene.Spheres) != 3 {
		t.Errorf("Expected 3 spheres, got %d", len(scene.Spheres))
	}

	if _, err := (SceneGenerator{Path: path + ".missing"}).GenerateScene(); err == nil {
		t.Error("Expected an error for a missing scene file")
	}
}

func TestSceneGeneratorRandom(t *testing.T) {
	a, err := SceneGenerator{Seed: 9}.GenerateScene()
	if err != nil {
		t.Fatalf("GenerateScene failed: %v", err)
	}
	b, _ := SceneGenerator{Seed: 9}.GenerateScene()
	if !bytes.Equal(a, b) {
		t.Error("Expected the same seed to produce the same blob")
	}
}

func TestBundledSceneFile(t *testing.T) {
	scene, err := LoadSceneFile("../../assets/scene.yaml")
	if err != nil {
		t.Fatalf("LoadSceneFile failed: %v", err)
	}
	if len(scene.Spheres) != 4 {
		t.Errorf("Expected 4 spheres, got %d", len(scene.Spheres))
	}
	if scene.Camera.VFov != 20 {
		t.Errorf("Expected vfov 20, got %v", scene.Camera.VFov)
	}
}
