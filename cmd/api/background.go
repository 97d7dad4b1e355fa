package main

import (
	"context"
	"time"
)

// advanceRecurringGames periodically bumps the kickoff of past recurring
// games forward by their recurrence frequency, so a weekly game whose date
// has passed shows up again next week without anyone recreating it.
func (app *application) advanceRecurringGames() {
	go func() {
		ticker := time.NewTicker(app.config.recurrence.interval)
		defer ticker.Stop()

		// Run once immediately
		app.runRecurrenceAdvance()

		for range ticker.C {
			app.runRecurrenceAdvance()
		}
	}()
}

func (app *application) runRecurrenceAdvance() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	advanced, err := app.store.Games.AdvanceRecurring(ctx)
	if err != nil {
		app.logger.Errorf("Error advancing recurring games: %v", err)
		return
	}

	if advanced > 0 {
		app.logger.Infof("Advanced %d recurring games at %s", advanced, time.Now().Format(time.RFC1123))
	}
}
