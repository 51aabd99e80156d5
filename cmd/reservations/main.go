package main

import (
	"slotdesk/internal/reservations/events"
	"slotdesk/internal/reservations/handler"
	"slotdesk/internal/reservations/repository"
	"slotdesk/internal/reservations/service"
	"slotdesk/internal/reservations/validator"
	"slotdesk/internal/students"
	"slotdesk/pkg/app"
	"slotdesk/pkg/config"
	"slotdesk/pkg/timeslot"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReservationService {
	grid, err := timeslot.NewGrid(cfg.WindowMinutes, cfg.DayStart, cfg.DayEnd)
	if err != nil {
		cfg.Log.Fatal("Invalid window grid configuration", "error", err)
	}

	reservationValidator := validator.NewReservationValidator(grid, cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewWindowLockRepository(cfg)
	directory := students.NewHTTPDirectory(cfg.StudentDirectoryURL, cfg.Log)
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic, cfg.Log)

	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		directory,
		publisher,
		reservationValidator,
		grid,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}
