// Package filehandler stores and retrieves the bytes of file attachments
// through pluggable handlers selected by save mode.
//
// A Registry is built once at startup from an explicit list of
// registrations and is read-only afterwards:
//
//	reg, err := filehandler.NewRegistry(cfg,
//	    filehandler.Registration{Name: "database", New: filehandler.NewDatabaseHandler},
//	    filehandler.Registration{Name: "local", New: filehandler.NewObjectConstructor("local", disk, nil)},
//	)
//
// Resolve turns a save mode into a handler instance. An empty mode selects
// the default registration (the one named by Config.SaveFileMode, else the
// first); a mode that matches nothing selects the built-in DatabaseHandler.
// Resolve never fails.
//
// Provider implements the attachment operations (get, delete, name and
// model lookup, upload, listing) on top of a Registry and a data-context
// factory.
package filehandler
