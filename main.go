package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	calendarx "github.com/voxcal/voxcal/agent/calendar"
	contractx "github.com/voxcal/voxcal/agent/contract"
	flowx "github.com/voxcal/voxcal/agent/flow"
	nlux "github.com/voxcal/voxcal/agent/nlu"
	speechx "github.com/voxcal/voxcal/agent/speech"
	statex "github.com/voxcal/voxcal/agent/state"
	timeparsex "github.com/voxcal/voxcal/agent/timeparse"
	configx "github.com/voxcal/voxcal/pkg/config"
	groqx "github.com/voxcal/voxcal/pkg/groq"
	_ "github.com/voxcal/voxcal/pkg/logger/autoload"
	serverx "github.com/voxcal/voxcal/server"
)

type AppConfig struct {
	EventDuration time.Duration `envconfig:"EVENT_DURATION" split_words:"true" default:"30m"`
	OfferNewLoop  bool          `envconfig:"OFFER_NEW_LOOP" split_words:"true" default:"true"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("APP")
	groqCfg := configx.MustNew[groqx.Config]("GROQ")
	extractorCfg := configx.MustNew[nlux.ExtractorConfig]("EXTRACTOR")
	calendarCfg := configx.MustNew[calendarx.Config]("GOOGLE")
	speechCfg := configx.MustNew[speechx.Config]("DEEPGRAM")
	serverCfg := configx.MustNew[serverx.Config]("SERVER")

	chatModel, err := groqCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build chat model")
	}
	provider, err := nlux.NewProvider(ctx, chatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build understanding provider")
	}

	extractor := nlux.NewExtractor(provider, timeparsex.New(), *extractorCfg)
	responder := nlux.NewGenerator(groqx.NewClient(*groqCfg), groqCfg.Model)

	calendar, err := calendarx.NewService(*calendarCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build calendar service")
	}

	router, err := flowx.NewRouter(extractor, responder, calendar, flowx.Config{
		EventDuration: appCfg.EventDuration,
		OfferNewLoop:  appCfg.OfferNewLoop,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build step router")
	}
	orchestrator := flowx.NewOrchestrator(router)

	handler := serverx.NewHandler(orchestrator, statex.NewRegistry(), *serverCfg)
	if transcriber, synthesizer := buildSpeech(*speechCfg); transcriber != nil {
		handler.WithSpeech(transcriber, synthesizer)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", handler)

	log.Info().Str("addr", serverCfg.Addr()).Msg("listening")
	if err := http.ListenAndServe(serverCfg.Addr(), mux); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// buildSpeech wires the Deepgram adapters when an API key is configured.
// Without one the endpoint runs text only.
func buildSpeech(cfg speechx.Config) (contractx.Transcriber, contractx.Synthesizer) {
	if cfg.APIKey == "" {
		log.Info().Msg("no deepgram api key configured, running text only")
		return nil, nil
	}

	transcriber, err := speechx.NewTranscriber(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build transcriber, running text only")
		return nil, nil
	}
	synthesizer, err := speechx.NewSynthesizer(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build synthesizer, running without audio replies")
		return transcriber, nil
	}
	return transcriber, synthesizer
}
