package main

import (
	"log"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/config"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
)

func main() {
	log.Println("Starting manual migration...")

	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	db := config.GetDB()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Migration failed: ", err)
	}

	log.Println("Manual migration completed successfully!")
}
