package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"school_portal/internal/storage"
	"school_portal/pkg"

	"github.com/joho/godotenv"
)

func demoRedisCache() {
	// Load environment variables
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	ctx := context.Background()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	// Redis-backed store with a one hour retention
	redis, err := storage.NewRedisStorage(ctx, redisURL, time.Hour)
	if err != nil {
		log.Fatalf("Failed to create Redis storage: %v", err)
	}
	defer redis.Close()

	err = redis.Ping(ctx)
	if err != nil {
		log.Fatalf("Redis ping failed: %v", err)
	}
	fmt.Println("Connected to Redis successfully")

	cache := storage.NewAttendanceCache(redis, nil)
	key := storage.CacheKey{StudentID: "demo_student", Session: "2024-25", ClassName: "10A"}
	records := []pkg.AttendanceRecord{
		{Date: "2025-03-03", Status: "P"},
		{Date: "2025-03-04", Status: "A"},
		{Date: "2025-03-04", Status: "P"},
	}

	fmt.Printf("Storing snapshot under %s...\n", key)
	cache.Write(ctx, key, records)

	ttl, err := redis.TTL(ctx, key.String())
	if err != nil {
		log.Fatalf("Failed to get TTL: %v", err)
	}
	fmt.Printf("Snapshot TTL: %v\n", ttl)

	fresh, ok := cache.Read(ctx, key, pkg.DefaultMaxCacheAge)
	fmt.Printf("Fresh read: ok=%v records=%d\n", ok, len(fresh))

	_, ok = cache.Read(ctx, key, -time.Second)
	fmt.Printf("Read with a negative window: ok=%v\n", ok)

	stale, ok := cache.ReadAny(ctx, key)
	fmt.Printf("Read ignoring age: ok=%v records=%d\n", ok, len(stale))

	for date, status := range pkg.AggregateByDate(stale) {
		fmt.Printf("  %s: %s\n", date, status)
	}

	fmt.Println("Cleaning up snapshot...")
	if err := redis.Delete(ctx, key.String()); err != nil {
		log.Fatalf("Failed to delete snapshot: %v", err)
	}

	_, ok = cache.ReadAny(ctx, key)
	fmt.Printf("Snapshot present after deletion: %v\n", ok)

	fmt.Println("Redis cache demo completed successfully!")
}

func main() {
	fmt.Println("Starting Redis Cache Demo")
	demoRedisCache()
}
