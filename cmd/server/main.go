package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/langchat/langchat/internal/api"
	"github.com/langchat/langchat/internal/config"
	"github.com/langchat/langchat/internal/core"
	"github.com/langchat/langchat/internal/docstore"
	"github.com/langchat/langchat/internal/llm"
	"github.com/langchat/langchat/internal/store"
	"github.com/langchat/langchat/internal/vectordb"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	ctx := context.Background()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize LLM provider
	provider, err := newProvider(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	defer provider.Close()

	// Initialize vector index
	index, err := vectordb.NewQdrantIndex(config.AppConfig.QdrantAddr)
	if err != nil {
		log.Fatalf("Failed to connect to vector index: %v", err)
	}
	defer index.Close()

	// Document store backing the index metadata
	docs := docstore.NewFileStore(config.AppConfig.DocsDir)

	// Initialize RAG and chat services
	ragService := core.NewRAGService(provider, index, docs, config.AppConfig.VectorNamespace, config.AppConfig.RetrievalTopK)
	chatService := core.NewChatService(dbStore, ragService, provider, config.AppConfig.DailyLimit)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,  // Adjusted for potentially slower LLM handshakes
		WriteTimeout: 120 * time.Second, // Streaming generations can run long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

func newProvider(ctx context.Context) (llm.Provider, error) {
	switch config.AppConfig.LLMProvider {
	case "openai":
		return llm.NewOpenAIProvider(config.AppConfig.OpenAIAPIKey), nil
	default:
		return llm.NewGeminiProvider(ctx, config.AppConfig.GeminiAPIKey)
	}
}
