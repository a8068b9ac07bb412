// Package autorovers embeds the vehicle comparison engine in a Go program:
// a per-owner compare selection, the vehicle type lock, and side-by-side
// comparison tables built from catalog records.
//
// # Selection and comparison
//
//	client, _ := autorovers.New(ctx,
//	    autorovers.WithValkey("localhost:6379", ""),
//	    autorovers.WithCatalog("https://catalog.example.com", ""),
//	)
//	defer client.Close()
//
//	sel := client.Selection("session-42")
//	_, reason, _ := sel.Toggle(ctx, vehicle)
//	if reason != autorovers.ReasonNone {
//	    fmt.Println(reason.Message())
//	}
//	cmp, _ := client.Compare(ctx, "session-42")
//	for _, r := range cmp.Table.Rows {
//	    fmt.Println(r.Label, r.Cells)
//	}
//
// # Watching
//
// Selection and vehicle type changes are delivered to Watch callbacks,
// including writes made by other processes sharing the same store.
//
//	stop := client.Selection("session-42").Watch(func(s autorovers.Selection) {
//	    fmt.Println(len(s.Items), "selected")
//	})
//	defer stop()
package autorovers
