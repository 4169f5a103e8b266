// Package layout loads the deck layout file.
//
// The layout declares default colours, named buttons, pages, the pages
// to load at startup and an optional init script:
//
//	defaults:
//	  background_color: '#101010'
//	buttons:
//	  - name: mute
//	    up_face: {label: Mute}
//	    down_handler: {code: pactl set-sink-mute @DEFAULT_SINK@ toggle}
//	pages:
//	  - name: main
//	    buttons:
//	      - position: {row: 0, col: -1}
//	        button: mute
//	  - name: browser
//	    on_app:
//	      conditions:
//	        - executable: .*firefox.*
//	      remove: true
//	    buttons:
//	      - position: [0, 0]
//	        button:
//	          up_face: {label: Back}
//	          down_handler: {file: scripts/back.sh}
//	default_pages: [main]
//	init_script:
//	  code: echo deck ready
//
// Load validates structure with go-playground/validator struct tags and
// then checks cross references. Every problem found is reported at once.
// Relative script, image and font paths resolve against the directory
// holding the layout file.
package layout
