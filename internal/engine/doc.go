// Package engine wires the completion pipeline together for one editor
// session.
//
// An Engine owns the completion cache, the enrichment tracker, the
// preloader, the ghost-text renderer and the diagnostic navigator. Every
// exported method must be called from the editor loop; network results are
// delivered back onto that loop by the completer.
//
// Typical use:
//
//	e, err := engine.New(cfg, engine.Deps{
//	    Overlay:     overlay,
//	    Diagnostics: diagnostics,
//	    Loop:        loop,
//	})
//	if err != nil {
//	    return err
//	}
//	defer e.Shutdown()
//
//	e.Trigger(buf)   // request a completion at the cursor
//	e.Accept()       // apply the visible suggestion
package engine
