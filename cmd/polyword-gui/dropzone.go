package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var dropZoneIdleColor = color.NRGBA{R: 200, G: 200, B: 200, A: 255}

// dropZone is the file target. Pointer hover stands in for drag-over, which
// desktop drivers do not report; the highlight itself comes from the
// controller snapshot.
type dropZone struct {
	widget.BaseWidget
	highlighted bool
	caption     string

	onTapped func()
	onHover  func(on bool)
}

func newDropZone(onTapped func(), onHover func(on bool)) *dropZone {
	d := &dropZone{
		caption:  "Drop a PDF here or click to browse",
		onTapped: onTapped,
		onHover:  onHover,
	}
	d.ExtendBaseWidget(d)
	return d
}

func (d *dropZone) Tapped(_ *fyne.PointEvent) {
	if d.onTapped != nil {
		d.onTapped()
	}
}

func (d *dropZone) MouseIn(_ *desktop.MouseEvent) {
	if d.onHover != nil {
		d.onHover(true)
	}
}

func (d *dropZone) MouseMoved(_ *desktop.MouseEvent) {}

func (d *dropZone) MouseOut() {
	if d.onHover != nil {
		d.onHover(false)
	}
}

func (d *dropZone) Cursor() desktop.Cursor {
	return desktop.PointerCursor
}

// setState must run on the UI goroutine.
func (d *dropZone) setState(highlighted bool, caption string) {
	if d.highlighted == highlighted && d.caption == caption {
		return
	}
	d.highlighted = highlighted
	d.caption = caption
	d.Refresh()
}

func (d *dropZone) CreateRenderer() fyne.WidgetRenderer {
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeWidth = 3
	border.StrokeColor = dropZoneIdleColor
	border.CornerRadius = 8

	icon := widget.NewIcon(theme.UploadIcon())
	label := canvas.NewText(d.caption, theme.Color(theme.ColorNameForeground))
	label.Alignment = fyne.TextAlignCenter

	return &dropZoneRenderer{border: border, icon: icon, label: label, d: d}
}

type dropZoneRenderer struct {
	border *canvas.Rectangle
	icon   *widget.Icon
	label  *canvas.Text
	d      *dropZone
}

func (r *dropZoneRenderer) Layout(s fyne.Size) {
	r.border.Resize(s)
	iconSize := fyne.NewSize(48, 48)
	r.icon.Resize(iconSize)
	r.icon.Move(fyne.NewPos((s.Width-iconSize.Width)/2, s.Height/2-iconSize.Height))
	labelSize := r.label.MinSize()
	r.label.Resize(fyne.NewSize(s.Width, labelSize.Height))
	r.label.Move(fyne.NewPos(0, s.Height/2+theme.Padding()))
}

func (r *dropZoneRenderer) MinSize() fyne.Size {
	w := r.label.MinSize().Width + 4*theme.Padding()
	if w < 320 {
		w = 320
	}
	return fyne.NewSize(w, 160)
}

func (r *dropZoneRenderer) Refresh() {
	accent := color.Color(dropZoneIdleColor)
	if r.d.highlighted {
		accent = theme.Color(theme.ColorNamePrimary)
	}
	r.border.StrokeColor = accent
	r.label.Text = r.d.caption
	r.label.Color = theme.Color(theme.ColorNameForeground)
	canvas.Refresh(r.border)
	canvas.Refresh(r.label)
}

func (r *dropZoneRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.border, r.icon, r.label}
}

func (r *dropZoneRenderer) Destroy() {}
