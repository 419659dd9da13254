package main

import (
	"log"
	"os"
	"strconv"

	"cityviz/internal/simd"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🚦 ================================")
	log.Println("🚦  CITYVIZ - MOCK SIMULATION")
	log.Println("🚦 ================================")

	mapPath := os.Getenv("SIMD_MAP") // empty means the embedded default map

	cityMap, err := simd.LoadMap(mapPath)
	if err != nil {
		log.Fatalf("❌ Map load failed: %v", err)
	}
	log.Printf("🗺️ Map %q: %dx%d", cityMap.Name, cityMap.Width, cityMap.Height)

	maxCars := getEnvInt("SIMD_MAX_CARS", 20)
	seed := int64(getEnvInt("SIMD_SEED", 42))

	world := simd.NewWorld(cityMap, maxCars, seed)
	handler := simd.NewHandler(world)

	port := getEnvInt("SIMD_PORT", 8585)
	if err := handler.Serve(":" + strconv.Itoa(port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
