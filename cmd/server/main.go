package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"

	"go-avatar/internal/agent"
	"go-avatar/internal/api"
	"go-avatar/internal/channel"
	"go-avatar/internal/config"
	"go-avatar/internal/db"
	"go-avatar/internal/goal"
	"go-avatar/internal/memory"
	redisdb "go-avatar/internal/redis"
	"go-avatar/internal/state"
	"go-avatar/internal/style"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	rdb := redisdb.NewClient(cfg)

	// Memory: relational log, optional episodic mirror, retention pruner
	var episodic *memory.EpisodicStore
	var embedder *memory.Embedder
	if cfg.Memory.Episodic.Enabled {
		episodic, err = memory.NewEpisodicStore(
			cfg.Memory.Episodic.Qdrant.URL,
			cfg.Memory.Episodic.Qdrant.Collection,
			cfg.Memory.Episodic.Qdrant.APIKey,
		)
		if err != nil {
			log.Printf("[Main] WARNING: episodic store unavailable: %v", err)
			episodic = nil
		} else {
			embedder = memory.NewEmbedder(cfg.Memory.Episodic.EmbeddingURL)
			log.Printf("[Main] Episodic memory enabled (collection %s)", cfg.Memory.Episodic.Qdrant.Collection)
		}
	}
	memories := memory.NewStore(db.DB, episodic, embedder)

	pruner := memory.NewPruner(db.DB, cfg.Memory.RetentionDays, cfg.Memory.PruneScheduleHours)
	go pruner.Start()

	// Expressive state, restored from the last session
	persist := state.NewManager(db.DB)
	defaults := state.ExpressiveState{
		Emotion:   state.Emotion(cfg.Agent.DefaultEmotion),
		Intensity: cfg.Agent.DefaultIntensity,
		TaskFocus: state.TaskFocusIdle,
	}
	restored, err := persist.Load(context.Background(), defaults)
	if err != nil {
		log.Printf("[Main] WARNING: state restore failed, using defaults: %v", err)
		restored = defaults
	}
	store := state.NewStore(restored.Emotion, restored.Intensity)

	// Goal tree; transitions are journaled as memory records
	goals := goal.NewManager()
	goals.AddListener(func(goalID string, from, to goal.Status, at time.Time) {
		detail := fmt.Sprintf(`{"goal_id":%q,"from":%q,"to":%q}`, goalID, from, to)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap := store.Snapshot()
		if err := memories.Remember(ctx, &memory.Record{
			Type:      memory.RecordGoalEvent,
			Emotion:   string(snap.Emotion),
			Intensity: snap.Intensity,
			TaskFocus: snap.TaskFocus,
			Detail:    datatypes.JSON(detail),
			Timestamp: at,
		}); err != nil {
			log.Printf("[Main] goal event record failed: %v", err)
		}
	})

	// Channels, fed through the websocket hub
	hub := channel.NewHub()
	var generator style.Generator
	if cfg.Style.URL != "" {
		generator = style.NewLLMGenerator(cfg.Style.URL, cfg.Style.Name)
		log.Printf("[Main] Style generator backed by %s", cfg.Style.Name)
	} else {
		generator = style.NewDescriptorGenerator()
	}

	orch := agent.NewOrchestrator(
		store,
		persist,
		goals,
		memories,
		channel.NewHeartAdapter(hub),
		channel.NewFaceAdapter(hub),
		channel.NewPostureAdapter(hub),
		channel.NewStyleAdapter(hub, generator),
		channel.NewSpeechAdapter(hub, store),
	)
	ingestor := agent.NewIngestor(orch, goals)

	deps := &api.Deps{
		Orchestrator: orch,
		Ingestor:     ingestor,
		Goals:        goals,
		Hub:          hub,
	}

	r := api.SetupRouter(cfg, rdb, deps)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
