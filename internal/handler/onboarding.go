package handler

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"comfortlybot/core/telegram/callbacks"
	"comfortlybot/core/telegram/helpers"
	"comfortlybot/core/telegram/keyboard"
	"comfortlybot/internal/service"
)

const ndaText = `*Comfortly Non-Disclosure & Privacy Agreement*

By joining as a **Talker (Comfort Provider)** you agree to:
1️⃣ Confidentiality – do not share or record listener info.
2️⃣ Data Protection – never store or distribute listener data.
3️⃣ Professional Conduct – respectful, non-romantic communication.
4️⃣ Penalties – breach may result in ban, loss of earnings, legal action.

Tap *I Accept the NDA* to continue.`

func (h *Handlers) start(c tele.Context) error {
	name := ""
	if c.Sender() != nil {
		name = c.Sender().FirstName
	}
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🎙 Become a Talker", Unique: "become_talker"}},
		[]keyboard.InlineBtn{{Text: "👂 I'm a Listener", Unique: "become_listener"}},
	)
	text := fmt.Sprintf("Welcome, %s! 🎉\nThis is Comfortly.\n\nWhat role would you like to play?", name)
	return helpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

func (h *Handlers) becomeTalker(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	needs, err := h.users.NeedsNDA(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if !needs {
		return helpers.SendText(c, "✅ You have already accepted the NDA.")
	}
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "✅ I Accept the NDA", Unique: "accept_nda"},
	})
	return helpers.SendMD(c, ndaText, markup)
}

func (h *Handlers) becomeListener(c tele.Context) error {
	return helpers.SendText(c, "👂 Listener access is coming soon. Stay tuned!")
}

func (h *Handlers) acceptNDA(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	if err := h.users.AcceptNDA(ctx, c.Sender().ID); err != nil {
		return err
	}
	return helpers.SendMD(c, "Thank you. Please enter your *full government-issued name* for payment and withdrawal records:")
}

// onboardingText feeds free text into the onboarding funnel. Slash-prefixed
// messages and out-of-step text are ignored.
func (h *Handlers) onboardingText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}
	ctx := helpers.BuildContext(c)
	outcome, err := h.users.SubmitText(ctx, c.Sender().ID, text)
	if err != nil {
		return err
	}
	switch outcome {
	case service.TextNameStored:
		return helpers.SendText(c, "Great. What is your nationality?")
	case service.TextNationalityStored:
		return helpers.SendText(c, "Select the comfort topics you’d like to handle.",
			&tele.SendOptions{ReplyMarkup: interestMenu()})
	}
	return nil
}

func interestMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "💬 Relationships", Unique: "interest", Data: "relationships"}},
		[]keyboard.InlineBtn{{Text: "😌 Stress Relief", Unique: "interest", Data: "stress"}},
		[]keyboard.InlineBtn{{Text: "🎯 Motivation", Unique: "interest", Data: "motivation"}},
		[]keyboard.InlineBtn{{Text: "💼 Career", Unique: "interest", Data: "career"}},
		[]keyboard.InlineBtn{{Text: "✅ Done", Unique: "interest", Data: "done"}},
	)
}

// interestPressed toggles a topic or, for "done", closes selection and shows
// the payment menu. Presses outside the selection step are ignored.
func (h *Handlers) interestPressed(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	chatID := c.Sender().ID
	tag := callbacks.CallbackPayload(c)
	if tag == "" {
		return nil
	}
	if tag == "done" {
		done, err := h.users.CompleteInterests(ctx, chatID)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		return h.sendPaymentMenu(c)
	}
	_, err := h.users.ToggleInterest(ctx, chatID, tag)
	return err
}

func (h *Handlers) sendPaymentMenu(c tele.Context) error {
	text := fmt.Sprintf("💳 *Subscription Required*\n\nTo activate your Talker account please complete a one-time payment.\n\nAmount: *%s*",
		h.cfg.Bot.SubscriptionPrice)
	markup := &tele.ReplyMarkup{}
	pay := markup.URL("🌐 Pay Online", h.cfg.Bot.PaymentLink)
	bank := markup.Data("🏦 Bank Transfer Details", "bank_details")
	upload := markup.Data("📤 Upload Receipt", "upload_receipt")
	markup.InlineKeyboard = keyboard.ToInlineKeyboard([][]tele.Btn{{pay}, {bank}, {upload}})
	return helpers.SendMD(c, text, markup)
}

func (h *Handlers) bankDetails(c tele.Context) error {
	return helpers.SendMD(c, h.cfg.Bot.BankDetails)
}

func (h *Handlers) uploadReceipt(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	if err := h.users.RequestReceipt(ctx, c.Sender().ID); err != nil {
		return err
	}
	return helpers.SendText(c, "📤 Please upload your payment receipt (photo or PDF).")
}

// ReceiptUpload captures an awaited payment proof, forwards it to the admin
// with approve and reject buttons, and acknowledges the uploader. Media from
// chats not awaiting a receipt is ignored.
func (h *Handlers) ReceiptUpload(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	chatID := c.Sender().ID
	msg := c.Message()
	if msg == nil {
		return nil
	}

	var fileID string
	switch {
	case msg.Photo != nil:
		fileID = msg.Photo.FileID
	case msg.Document != nil:
		fileID = msg.Document.FileID
	default:
		return nil
	}

	accepted, err := h.users.SubmitReceipt(ctx, chatID, fileID)
	if err != nil {
		return err
	}
	if !accepted {
		return nil
	}

	caption := fmt.Sprintf("Payment receipt from UserID:%d", chatID)
	payload := strconv.FormatInt(chatID, 10)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Approve Talker", Unique: "approve", Data: payload},
		{Text: "❌ Reject", Unique: "reject", Data: payload},
	})

	var media interface{}
	if msg.Photo != nil {
		media = &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	} else {
		media = &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	}
	admin := &tele.User{ID: h.cfg.Telegram.AdminID}
	if _, err := c.Bot().Send(admin, media, &tele.SendOptions{ReplyMarkup: markup}); err != nil {
		return err
	}

	return helpers.SendText(c, "✅ Receipt received. We’ll notify you once approved.")
}
