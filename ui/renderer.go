package ui

import (
	"kardium-snake/game"
	"kardium-snake/game/manager"
	"kardium-snake/game/types"
	"kardium-snake/i18n"
	"kardium-snake/stats"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	borderPadding = 10
	maxGraphGames = 50
)

var (
	colorBackground = rl.NewColor(18, 14, 30, 255)
	colorBoard      = rl.NewColor(30, 24, 48, 255)
	colorGridLine   = rl.NewColor(45, 38, 68, 255)
	colorHead       = rl.NewColor(168, 85, 247, 255)
	colorBody       = rl.NewColor(126, 34, 206, 255)
	colorFood       = rl.NewColor(250, 204, 21, 255)
	colorText       = rl.RayWhite
	colorMuted      = rl.Gray
)

// Renderer draws a snapshot with a side panel for the HUD and stats graph
type Renderer struct {
	cat *i18n.Catalog

	cellSize     int32
	screenWidth  int32
	screenHeight int32
	statsPanel   int32
	gameWidth    int32
	offsetX      int32
	offsetY      int32
}

func NewRenderer(cat *i18n.Catalog) *Renderer {
	r := &Renderer{cat: cat}
	r.UpdateDimensions()
	return r
}

func (r *Renderer) UpdateDimensions() {
	r.screenWidth = int32(rl.GetScreenWidth())
	r.screenHeight = int32(rl.GetScreenHeight())
	r.statsPanel = max(r.screenWidth/3, 260)
	r.gameWidth = r.screenWidth - r.statsPanel
}

// Frame is everything drawn besides the board
type Frame struct {
	Snapshot  game.Snapshot
	Summary   stats.Summary
	Recent    []stats.GameRecord
	Message   string
	Alert     bool
	Autopilot bool
}

func (r *Renderer) Draw(f Frame) {
	r.UpdateDimensions()
	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(colorBackground)

	snap := f.Snapshot
	w, h := int32(snap.Grid.Width), int32(snap.Grid.Height)
	availableWidth := r.gameWidth - borderPadding*2
	availableHeight := r.screenHeight - borderPadding*2
	r.cellSize = max(min(availableWidth/w, availableHeight/h), 1)
	r.offsetX = borderPadding + (availableWidth-r.cellSize*w)/2
	r.offsetY = borderPadding + (availableHeight-r.cellSize*h)/2

	r.drawBoard(snap)
	r.drawOverlay(snap)
	r.drawPanel(f)
}

func (r *Renderer) cellRect(p types.Point) (int32, int32) {
	return r.offsetX + int32(p.X)*r.cellSize, r.offsetY + int32(p.Y)*r.cellSize
}

func (r *Renderer) drawBoard(snap game.Snapshot) {
	w, h := int32(snap.Grid.Width), int32(snap.Grid.Height)
	rl.DrawRectangle(r.offsetX-1, r.offsetY-1, r.cellSize*w+2, r.cellSize*h+2, colorBoard)
	for x := int32(1); x < w; x++ {
		rl.DrawLine(r.offsetX+x*r.cellSize, r.offsetY, r.offsetX+x*r.cellSize, r.offsetY+h*r.cellSize, colorGridLine)
	}
	for y := int32(1); y < h; y++ {
		rl.DrawLine(r.offsetX, r.offsetY+y*r.cellSize, r.offsetX+w*r.cellSize, r.offsetY+y*r.cellSize, colorGridLine)
	}

	for _, p := range snap.Food {
		x, y := r.cellRect(p)
		half := float32(r.cellSize) / 2
		rl.DrawCircle(x+r.cellSize/2, y+r.cellSize/2, half*0.7, colorFood)
	}

	for i := len(snap.Snake) - 1; i >= 0; i-- {
		x, y := r.cellRect(snap.Snake[i])
		c := colorBody
		if i == 0 {
			c = colorHead
		}
		rl.DrawRectangle(x+1, y+1, r.cellSize-2, r.cellSize-2, c)
	}
	if len(snap.Snake) > 0 {
		r.drawHeading(snap.Snake[0], snap.Direction)
	}
}

// drawHeading puts a small arrow on the head cell
func (r *Renderer) drawHeading(head types.Point, dir types.Direction) {
	x, y := r.cellRect(head)
	fx, fy, c, hc := float32(x), float32(y), float32(r.cellSize), float32(r.cellSize)/2
	var a, b, d rl.Vector2
	switch dir {
	case types.RIGHT:
		a, b, d = rl.Vector2{X: fx + c, Y: fy + hc}, rl.Vector2{X: fx + hc, Y: fy}, rl.Vector2{X: fx + hc, Y: fy + c}
	case types.LEFT:
		a, b, d = rl.Vector2{X: fx, Y: fy + hc}, rl.Vector2{X: fx + hc, Y: fy + c}, rl.Vector2{X: fx + hc, Y: fy}
	case types.DOWN:
		a, b, d = rl.Vector2{X: fx + hc, Y: fy + c}, rl.Vector2{X: fx + c, Y: fy + hc}, rl.Vector2{X: fx, Y: fy + hc}
	default:
		a, b, d = rl.Vector2{X: fx + hc, Y: fy}, rl.Vector2{X: fx, Y: fy + hc}, rl.Vector2{X: fx + c, Y: fy + hc}
	}
	rl.DrawTriangle(a, b, d, rl.Fade(rl.White, 0.6))
}

func (r *Renderer) drawCentered(text string, y, size int32, c rl.Color) {
	rl.DrawText(text, r.gameWidth/2-rl.MeasureText(text, size)/2, y, size, c)
}

func (r *Renderer) drawOverlay(snap game.Snapshot) {
	if snap.Phase == manager.Running {
		return
	}
	w, h := int32(snap.Grid.Width), int32(snap.Grid.Height)
	rl.DrawRectangle(r.offsetX, r.offsetY, w*r.cellSize, h*r.cellSize, rl.Fade(rl.Black, 0.6))

	mid := r.offsetY + h*r.cellSize/2
	big := max(r.screenHeight/18, 20)
	small := max(r.screenHeight/40, 12)

	switch snap.Phase {
	case manager.Idle:
		r.drawCentered(r.cat.Get("TITLE"), mid-big, big, colorHead)
		r.drawCentered(r.cat.Get("PRESS_START"), mid+small, small, colorText)
	case manager.Paused:
		r.drawCentered(r.cat.Get("PAUSED"), mid-big, big, colorText)
		r.drawCentered(r.cat.Get("CONTINUE"), mid+small, small, colorMuted)
	case manager.Over:
		r.drawCentered(r.cat.Get("GAME_OVER"), mid-big, big, rl.Red)
		r.drawCentered(r.cat.Get("FINAL_SCORE", snap.Session.Score), mid+small, small, colorText)
		r.drawCentered(r.cat.Get("PLAY_AGAIN"), mid+small*3, small, colorMuted)
	}
}

func (r *Renderer) statusText(p manager.Phase) string {
	switch p {
	case manager.Running:
		return r.cat.Get("STATUS_RUNNING")
	case manager.Paused:
		return r.cat.Get("STATUS_PAUSED")
	case manager.Over:
		return r.cat.Get("STATUS_OVER")
	default:
		return r.cat.Get("STATUS_IDLE")
	}
}

func (r *Renderer) drawPanel(f Frame) {
	snap := f.Snapshot
	x := r.gameWidth + borderPadding
	y := int32(borderPadding)
	fontSize := max(min(r.screenHeight/40, r.statsPanel/16), 10)
	lineHeight := fontSize + fontSize/2

	rl.DrawText(r.cat.Get("TITLE"), x, y, fontSize*2, colorHead)
	y += fontSize*2 + lineHeight

	lines := []string{
		r.cat.Get("SCORE", snap.Session.Score),
		r.cat.Get("BEST", snap.Session.Best),
		r.cat.Get("LENGTH", len(snap.Snake)),
		r.cat.Get("FOOD", len(snap.Food)),
		r.cat.Get("HEADING", snap.Direction),
		r.cat.Get("STATUS", r.statusText(snap.Phase)),
	}
	for _, l := range lines {
		rl.DrawText(l, x, y, fontSize, colorText)
		y += lineHeight
	}
	if f.Autopilot {
		rl.DrawText(r.cat.Get("AUTOPILOT"), x, y, fontSize, colorMuted)
		y += lineHeight
	}
	if f.Message != "" {
		c := colorFood
		if f.Alert {
			c = rl.Red
		}
		rl.DrawText(f.Message, x, y, fontSize, c)
		y += lineHeight
	}

	y += lineHeight
	rl.DrawText(r.cat.Get("STATS_TITLE"), x, y, fontSize, colorHead)
	y += lineHeight
	rl.DrawText(r.cat.Get("GAMES_PLAYED", f.Summary.GamesPlayed), x, y, fontSize, colorText)
	y += lineHeight
	rl.DrawText(r.cat.Get("AVG_SCORE", f.Summary.AverageScore), x, y, fontSize, rl.Green)
	y += lineHeight
	rl.DrawText(r.cat.Get("MAX_SCORE", f.Summary.MaxScore), x, y, fontSize, rl.Green)
	y += lineHeight

	graphHeight := r.screenHeight / 5
	graphY := max(y+lineHeight, r.screenHeight-graphHeight-lineHeight*3)
	r.drawStatsGraph(f.Recent, x, graphY, r.statsPanel-borderPadding*2, graphHeight)

	rl.DrawText(r.cat.Get("CONTROLS"), borderPadding, r.screenHeight-fontSize-2, max(fontSize*3/4, 8), colorMuted)
}

// drawStatsGraph plots score (green) and duration (purple) bars per game
func (r *Renderer) drawStatsGraph(records []stats.GameRecord, x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, colorBoard)
	if len(records) == 0 {
		return
	}
	if len(records) > maxGraphGames {
		records = records[len(records)-maxGraphGames:]
	}

	var maxScore int
	var maxDuration float64
	for _, g := range records {
		maxScore = max(maxScore, g.MaxScore)
		maxDuration = max(maxDuration, g.MaxDuration)
	}
	maxScore = max(maxScore, types.FoodReward)
	maxDuration = max(maxDuration, 1)

	const barWidth = float32(3)
	const barAlpha = uint8(180)
	usable := float32(height - 10)
	bottom := float32(y + height)
	spacing := float32(width) / float32(len(records))

	var prevScore, prevDuration rl.Vector2
	for i, g := range records {
		cx := float32(x) + spacing*(float32(i)+0.5)
		scoreTop := bottom - float32(g.Score)/float32(maxScore)*usable
		durTop := bottom - float32(g.AverageDuration/maxDuration)*usable

		rl.DrawRectangle(int32(cx-barWidth-1), int32(scoreTop), int32(barWidth), int32(bottom-scoreTop),
			rl.NewColor(0, barAlpha, 0, barAlpha))
		rl.DrawRectangle(int32(cx+1), int32(durTop), int32(barWidth), int32(bottom-durTop),
			rl.NewColor(barAlpha, 0, barAlpha, barAlpha))

		score := rl.Vector2{X: cx - barWidth/2 - 1, Y: scoreTop}
		dur := rl.Vector2{X: cx + barWidth/2 + 1, Y: durTop}
		if i > 0 {
			rl.DrawLineV(prevScore, score, rl.Green)
			rl.DrawLineV(prevDuration, dur, rl.Purple)
		}
		prevScore, prevDuration = score, dur
	}
}
