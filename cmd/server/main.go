package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/galerija/exhibition-booking/internal/cache"
	"github.com/galerija/exhibition-booking/internal/config"
	"github.com/galerija/exhibition-booking/internal/database"
	"github.com/galerija/exhibition-booking/internal/handler"
	"github.com/galerija/exhibition-booking/internal/notify"
	"github.com/galerija/exhibition-booking/internal/queue"
	"github.com/galerija/exhibition-booking/internal/repository"
	"github.com/galerija/exhibition-booking/internal/router"
	"github.com/galerija/exhibition-booking/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, seat counts served uncached")
	}
	seats := cache.NewSeatCache(rdb)

	users := repository.NewUserRepo(db)
	exhibitions := repository.NewExhibitionRepo(db)
	bookings := repository.NewBookingRepo(db)

	notifier := notify.NewAMQPNotifier(cfg.AMQPURL)
	admission := service.NewAdmission(exhibitions, bookings, users, notifier)
	validation := service.NewValidation(bookings)

	// Background worker that turns ticket.issued events into the
	// (simulated) confirmation emails.
	go func() {
		if err := queue.StartTicketConsumer(cfg.AMQPURL); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, cfg.JWTSecret,
		handler.NewAuthHandler(cfg, users),
		handler.NewExhibitionHandler(exhibitions, seats),
		handler.NewBookingHandler(admission, bookings, seats),
		handler.NewAdmissionHandler(validation),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
